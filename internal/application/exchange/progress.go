package exchange

// Progress is one step report from a long-running pipeline run
type Progress struct {
	Stage      string  `json:"stage"`
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// ProgressFunc receives progress reports. The final report of a
// successful run always carries 100%.
type ProgressFunc func(Progress)

// notify invokes fn if set, deriving the percentage from current/total.
// A zero total is reported as complete.
func notify(fn ProgressFunc, stage string, current, total int) {
	if fn == nil {
		return
	}
	pct := 100.0
	if total > 0 {
		pct = float64(current) / float64(total) * 100
	}
	fn(Progress{Stage: stage, Current: current, Total: total, Percentage: pct})
}
