package stats

import (
	"github.com/relloyd/salespipe/logger"
)

// MockStatsManager hands out unregistered watchers and never dumps.
type MockStatsManager struct {
	log logger.Logger
}

func (s *MockStatsManager) StartDumping() {}

func (s *MockStatsManager) StopDumping() {}

func (s *MockStatsManager) GetStats() []Stats {
	return nil
}

func (s *MockStatsManager) AddJobWatcher(stageName string, jobName string) *JobWatcher {
	return NewJobWatcher(s.log, stageName, jobName)
}

func NewMockStatsManager(log logger.Logger) *MockStatsManager {
	return &MockStatsManager{log: log}
}
