package analysis

// weightedAmbiguity combines normalized requirement metrics. Every input is
// already in [0,1]; the sum is clamped because weights need not add to 1.
func weightedAmbiguity(m RequirementMetrics, w AmbiguityWeights) float64 {
	missing := 0.0
	if m.MissingCriteria {
		missing = 1
	}
	return clamp01(w.VagueRatio*m.VagueRatio +
		w.SentenceLength*m.SentenceLengthNorm +
		w.PassiveVoice*m.PassiveRatio +
		w.MissingCriteria*missing)
}

// weightedOverload is the full-mode sprint score. Only the final sum is
// clamped; hours ratio may exceed 1 on its own.
func weightedOverload(m OverloadMetrics, w OverloadWeights, tasksPerDevCap float64) float64 {
	return clamp01(w.CarryOver*m.CarryOverRate +
		w.TasksPerDev*(float64(m.MaxTasksPerDev)/tasksPerDevCap) +
		w.HoursRatio*m.HoursRatio)
}

// compositeScore blends document ambiguity and sprint overload.
func compositeScore(ambiguity, overload float64, r RiskConfig) float64 {
	return r.AmbiguityWeight*ambiguity + r.OverloadWeight*overload
}
