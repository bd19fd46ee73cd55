package walker

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

// timerSnapshotData is the four-scalar restore snapshot (plus the formula it
// belongs to) that survives process death. The timer itself reconstructs
// everything else from these via RestoreState.
type timerSnapshotData struct {
	FormulaName          string `json:"formula_name"`
	TimeRemainingSeconds int    `json:"time_remaining_seconds"`
	CurrentInterval      int    `json:"current_interval"`
	CurrentPhase         string `json:"current_phase"`
	IsRunning            bool   `json:"is_running"`
}

type snapshotStore struct {
	filePath string
	logger   *log.Logger
}

func newSnapshotStore(dir string, logger *log.Logger) *snapshotStore {
	return &snapshotStore{
		filePath: filepath.Join(dir, "timer_state.json"),
		logger:   logger,
	}
}

// load returns the persisted snapshot, or false if none exists or it cannot
// be parsed. Persistence is best-effort; a broken file just means a fresh
// timer.
func (p *snapshotStore) load() (timerSnapshotData, bool) {
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("snapshotStore: load %s (no existing file)", p.filePath)
		return timerSnapshotData{}, false
	}
	var data timerSnapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		p.logger.Printf("snapshotStore: load %s failed to parse: %v", p.filePath, err)
		return timerSnapshotData{}, false
	}
	if _, err := parsePhase(data.CurrentPhase); err != nil {
		p.logger.Printf("snapshotStore: load %s: %v", p.filePath, err)
		return timerSnapshotData{}, false
	}
	return data, true
}

func (p *snapshotStore) save(data timerSnapshotData) {
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("snapshotStore: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		p.logger.Printf("snapshotStore: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("snapshotStore: save %s failed: %v", p.filePath, err)
		return
	}
}

// clear removes the snapshot file; called once a workout completes so the
// next launch starts fresh.
func (p *snapshotStore) clear() {
	if err := os.Remove(p.filePath); err != nil && !os.IsNotExist(err) {
		p.logger.Printf("snapshotStore: clear %s failed: %v", p.filePath, err)
	}
}
