package screencap

import (
	"time"

	"github.com/mobile-next/adbctl/device"
	"github.com/mobile-next/adbctl/types"
	"github.com/mobile-next/adbctl/unit"
	"github.com/mobile-next/adbctl/utils"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

type raceEntry struct {
	method    Method
	screencap Screencap
}

// RaceResult is the timing of one strategy's capture.
type RaceResult struct {
	Method  Method
	Elapsed time.Duration
}

// FastestWay initializes every strategy, times one capture of each and
// keeps the fastest one. Screencap forwards to the winner.
type FastestWay struct {
	unit.Base

	entries []raceEntry
	winner  *raceEntry
	results []RaceResult
}

func NewFastestWay(info *device.Info) *FastestWay {
	entries := lo.Map(AllMethods(), func(m Method, _ int) raceEntry {
		s, _ := New(m, info)
		return raceEntry{method: m, screencap: s}
	})
	return newFastestWay(entries)
}

func newFastestWay(entries []raceEntry) *FastestWay {
	f := &FastestWay{entries: entries}
	for _, e := range entries {
		f.AddChild(e.screencap)
	}
	return f
}

func (f *FastestWay) Parse(cfg unit.Config) error {
	return f.ParseChildren(cfg)
}

// Init races all strategies. It fails with ErrNoMethod when none produced a
// frame.
func (f *FastestWay) Init(width, height int) error {
	f.Deinit()

	initialized := make([]*raceEntry, 0, len(f.entries))
	for i := range f.entries {
		e := &f.entries[i]
		if err := e.screencap.Init(width, height); err != nil {
			utils.WithFields(logrus.Fields{"method": e.method.String()}).Infof("screencap init failed: %v", err)
			continue
		}
		initialized = append(initialized, e)
	}

	results := make([]RaceResult, 0, len(initialized))
	candidates := make([]*raceEntry, 0, len(initialized))
	for _, e := range initialized {
		elapsed, err := timeCapture(e)
		log := utils.WithFields(logrus.Fields{"method": e.method.String(), "elapsed": elapsed})
		if err != nil {
			log.Infof("screencap failed: %v", err)
			continue
		}
		log.Info("screencap succeeded")
		results = append(results, RaceResult{Method: e.method, Elapsed: elapsed})
		candidates = append(candidates, e)
	}

	if len(candidates) == 0 {
		for _, e := range initialized {
			e.screencap.Deinit()
		}
		return ErrNoMethod
	}

	best := lo.MinBy(results, func(a, b RaceResult) bool {
		return a.Elapsed < b.Elapsed
	})
	for _, e := range initialized {
		if e.method == best.Method {
			f.winner = e
			continue
		}
		e.screencap.Deinit()
	}
	f.results = results

	utils.WithFields(logrus.Fields{"method": best.Method.String(), "elapsed": best.Elapsed}).Info("fastest screencap method locked")
	return nil
}

func timeCapture(e *raceEntry) (time.Duration, error) {
	if needsWarmup(e.method) {
		if _, err := e.screencap.Screencap(); err != nil {
			utils.Verbose("%s warm-up capture failed: %v", e.method, err)
		}
	}

	start := time.Now()
	frame, err := e.screencap.Screencap()
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, err
	}
	if frame == nil || frame.Empty() {
		return elapsed, ErrEmptyData
	}
	return elapsed, nil
}

// Locked reports the winning method, if any.
func (f *FastestWay) Locked() (Method, bool) {
	if f.winner == nil {
		return MethodUnknown, false
	}
	return f.winner.method, true
}

// Results returns the timings of the last race.
func (f *FastestWay) Results() []RaceResult {
	return f.results
}

func (f *FastestWay) SetWH(width, height int) error {
	if f.winner == nil {
		return ErrNotInitialized
	}
	return f.winner.screencap.SetWH(width, height)
}

func (f *FastestWay) Screencap() (*types.Frame, error) {
	if f.winner == nil {
		return nil, ErrNotInitialized
	}
	return f.winner.screencap.Screencap()
}

func (f *FastestWay) Deinit() {
	if f.winner == nil {
		return
	}
	f.winner.screencap.Deinit()
	f.winner = nil
	f.results = nil
}
