// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lsm

import "errors"

func (s *Storage) startWorker() {
	ticker := s.options.Clock.NewTicker(s.options.BackgroundInterval)
	s.stopWorker = make(chan struct{})
	s.workerDone = make(chan struct{})

	go func() {
		defer close(s.workerDone)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopWorker:
				return
			case <-ticker.C:
				s.backgroundStep()
				if s.options.afterBackgroundStep != nil {
					s.options.afterBackgroundStep()
				}
			}
		}
	}()
}

// backgroundStep flushes every frozen memtable and compacts once L0
// reaches the trigger.
func (s *Storage) backgroundStep() {
	if s.closed.Load() {
		return
	}

	s.structureMu.Lock()
	err := s.flushAllLocked()
	s.structureMu.Unlock()
	if err != nil {
		s.logger.Error("background flush failed", "dir", s.dir, "error", err)
		return
	}

	if len(s.snapshot().l0) < s.options.L0CompactionTrigger {
		return
	}
	if err := s.Compact(); err != nil && !errors.Is(err, ErrClosed) {
		s.logger.Error("background compaction failed", "dir", s.dir, "error", err)
	}
}
