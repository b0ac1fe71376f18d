// Package store 用 Pebble 持久化回放记录：每个 run 的元数据与逐 tick 报告。
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"market-replay-go/sim"
)

// ErrRunNotFound 指定 run 不存在。
var ErrRunNotFound = errors.New("run not found")

// RunRecord 一次回放的元数据，结束后补上汇总。
type RunRecord struct {
	RunID       string       `json:"runId"`
	Participant string       `json:"participant"`
	Dataset     string       `json:"dataset"`
	StartedAt   time.Time    `json:"startedAt"`
	FinishedAt  time.Time    `json:"finishedAt,omitempty"`
	Summary     *sim.Summary `json:"summary,omitempty"`
}

// Journal 实现 sim.Recorder / sim.Finisher，写入本地 Pebble。
type Journal struct {
	db *pebble.DB

	mu  sync.Mutex
	run *RunRecord // 当前 run，Finish 时回写
}

// Open opens (or creates) a journal at path.
func Open(path string) (*Journal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open journal at %s: %w", path, err)
	}
	return &Journal{db: db}, nil
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}

// SaveRun 写入 run 元数据，并作为后续 Finish 的目标。
func (j *Journal) SaveRun(rec RunRecord) error {
	if rec.RunID == "" {
		return errors.New("run id is required")
	}
	if err := j.put(runKey(rec.RunID), rec, pebble.Sync); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	j.mu.Lock()
	cp := rec
	j.run = &cp
	j.mu.Unlock()
	return nil
}

// LoadRun 读取 run 元数据。
func (j *Journal) LoadRun(runID string) (RunRecord, error) {
	var rec RunRecord
	data, closer, err := j.db.Get(runKey(runID))
	if errors.Is(err, pebble.ErrNotFound) {
		return rec, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return rec, err
	}
	defer closer.Close()
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return rec, nil
}

// Runs 列出所有 run ID（按 key 顺序）。
func (j *Journal) Runs() ([]string, error) {
	prefix := []byte(runPrefix)
	iter, err := j.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var ids []string
	for iter.First(); iter.Valid(); iter.Next() {
		ids = append(ids, string(iter.Key()[len(prefix):]))
	}
	return ids, iter.Error()
}

// SaveTick 写入单个 tick 报告。tick 量大，使用 NoSync，Finish 时统一 Flush。
func (j *Journal) SaveTick(rep sim.TickReport) error {
	if rep.RunID == "" {
		return errors.New("tick report without run id")
	}
	if err := j.put(tickKey(rep.RunID, rep.Index), rep, pebble.NoSync); err != nil {
		return fmt.Errorf("save tick %s: %w", rep.Timestamp, err)
	}
	return nil
}

// LoadTicks 按 tick 序号顺序返回某个 run 的全部报告。
func (j *Journal) LoadTicks(runID string) ([]sim.TickReport, error) {
	prefix := tickPrefix(runID)
	iter, err := j.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: keyUpperBound(prefix)})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []sim.TickReport
	for iter.First(); iter.Valid(); iter.Next() {
		var rep sim.TickReport
		if err := json.Unmarshal(iter.Value(), &rep); err != nil {
			return nil, fmt.Errorf("decode tick %s: %w", iter.Key(), err)
		}
		out = append(out, rep)
	}
	return out, iter.Error()
}

// Record 实现 sim.Recorder。
func (j *Journal) Record(rep sim.TickReport) error {
	return j.SaveTick(rep)
}

// Finish 实现 sim.Finisher：回写汇总并落盘。没有 SaveRun 过的 run 会新建记录。
func (j *Journal) Finish(sum sim.Summary) error {
	j.mu.Lock()
	rec := RunRecord{RunID: sum.RunID, Participant: sum.Participant}
	if j.run != nil && j.run.RunID == sum.RunID {
		rec = *j.run
	}
	j.mu.Unlock()

	rec.FinishedAt = time.Now().UTC()
	rec.Summary = &sum
	if err := j.SaveRun(rec); err != nil {
		return err
	}
	return j.db.Flush()
}

func (j *Journal) put(key []byte, v interface{}, opts *pebble.WriteOptions) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return j.db.Set(key, data, opts)
}

const (
	runPrefix     = "run/"
	tickKeyPrefix = "tick/"
)

func runKey(runID string) []byte { return []byte(runPrefix + runID) }

func tickPrefix(runID string) []byte { return []byte(tickKeyPrefix + runID + "/") }

// tickKey 序号补零，保证字典序即 tick 顺序。
func tickKey(runID string, index int) []byte {
	return []byte(fmt.Sprintf("%s%s/%010d", tickKeyPrefix, runID, index))
}

// keyUpperBound 前缀的最小上界。
func keyUpperBound(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
