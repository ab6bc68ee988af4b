package usecase

import "github.com/eliteGoblin/focusd/disk_clean/internal/domain"

// nopRecorder discards statistics when no recorder is wired.
type nopRecorder struct{}

func (nopRecorder) ObserveScan(domain.ScanResult, int64) {}
func (nopRecorder) RuleFailed(string)                    {}
func (nopRecorder) ObserveClean(domain.CleanOutcome)     {}
func (nopRecorder) BackupsPruned(int)                    {}

func recorderOrNop(r domain.Recorder) domain.Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
