package probe

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned by Config.Validate and NewSession.
var ErrInvalidConfig = errors.New("invalid probe config")

// Config holds the probe's windows and thresholds. The defaults match a
// 60fps frame budget.
type Config struct {
	// HistorySize is the number of recent frame durations kept for the
	// rolling average.
	HistorySize int `json:"historySize"`
	// BatchSize is the blocking-frame count that forces a batch flush.
	BatchSize int `json:"batchSize"`
	// LogCapacity caps the event log.
	LogCapacity int `json:"logCapacity"`
	// ReportInterval is the minimum wall-clock gap between summaries.
	ReportInterval time.Duration `json:"reportInterval"`

	FrameBudgetMs float64 `json:"frameBudgetMs"`
	// SevereFrameMs separates warning-class from error-class blocking frames.
	SevereFrameMs float64 `json:"severeFrameMs"`
	// SizeFlushErrorCount is the absolute error-class count above which a
	// full batch is reported as an error.
	SizeFlushErrorCount int `json:"sizeFlushErrorCount"`
	// ClickErrorMs is the click latency above which a handler run is an error.
	ClickErrorMs float64 `json:"clickErrorMs"`
	// BacklogThreshold is the queue depth above which the page counts as blocking.
	BacklogThreshold int `json:"backlogThreshold"`
	// RecentFrames is how many durations the summary lists.
	RecentFrames int `json:"recentFrames"`

	// TargetID is the element id whose clicks are tracked.
	TargetID string `json:"targetId"`
}

// DefaultConfig returns the standard 60fps configuration.
func DefaultConfig() Config {
	return Config{
		HistorySize:         60,
		BatchSize:           60,
		LogCapacity:         100,
		ReportInterval:      time.Second,
		FrameBudgetMs:       16.67,
		SevereFrameMs:       50,
		SizeFlushErrorCount: 30,
		ClickErrorMs:        100,
		BacklogThreshold:    5,
		RecentFrames:        10,
		TargetID:            "test-button",
	}
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	switch {
	case c.HistorySize <= 0:
		return fmt.Errorf("%w: history size must be positive, got %d", ErrInvalidConfig, c.HistorySize)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.LogCapacity <= 0:
		return fmt.Errorf("%w: log capacity must be positive, got %d", ErrInvalidConfig, c.LogCapacity)
	case c.ReportInterval <= 0:
		return fmt.Errorf("%w: report interval must be positive, got %s", ErrInvalidConfig, c.ReportInterval)
	case c.FrameBudgetMs <= 0:
		return fmt.Errorf("%w: frame budget must be positive, got %v", ErrInvalidConfig, c.FrameBudgetMs)
	case c.SevereFrameMs < c.FrameBudgetMs:
		return fmt.Errorf("%w: severe frame threshold %v is below the frame budget %v", ErrInvalidConfig, c.SevereFrameMs, c.FrameBudgetMs)
	case c.ClickErrorMs < c.FrameBudgetMs:
		return fmt.Errorf("%w: click error threshold %v is below the frame budget %v", ErrInvalidConfig, c.ClickErrorMs, c.FrameBudgetMs)
	case c.RecentFrames < 0:
		return fmt.Errorf("%w: recent frame count must not be negative, got %d", ErrInvalidConfig, c.RecentFrames)
	case c.TargetID == "":
		return fmt.Errorf("%w: target id is required", ErrInvalidConfig)
	}
	return nil
}
