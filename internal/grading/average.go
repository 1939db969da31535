package grading

import (
	"math"
	"slices"

	"github.com/isimg/moyenne/internal/catalog"
)

// SubjectAverage computes the average of s from the entries in m. Missing or
// unparseable entries count as 0 and still count towards the denominator.
// The result is not rounded.
func SubjectAverage(s catalog.Subject, m Marks) float64 {
	return subjectAverage(s, Classify(s.Inputs), m)
}

func subjectAverage(s catalog.Subject, f Formula, m Marks) float64 {
	if len(s.Inputs) == 0 {
		return 0
	}

	entries := m[s.ID]

	if f.Kind == SimpleAverage {
		var sum float64
		for _, label := range s.Inputs {
			sum += Resolve(entries[label])
		}
		return sum / float64(len(s.Inputs))
	}

	exam := Resolve(entries[s.Inputs[f.Exam]])
	if len(s.Inputs) == 1 {
		return exam
	}

	var others float64
	for i, label := range s.Inputs {
		if i != f.Exam {
			others += Resolve(entries[label])
		}
	}
	continuous := others / float64(len(s.Inputs)-1)

	return ExamWeight*exam + ContinuousWeight*continuous
}

// OverallAverage is the coefficient-weighted mean of the subject averages,
// or 0 when the coefficients sum to 0.
func OverallAverage(subjects []catalog.Subject, m Marks) float64 {
	avgs := make([]float64, len(subjects))
	coefs := make([]float64, len(subjects))
	for i, s := range subjects {
		avgs[i] = SubjectAverage(s, m)
		coefs[i] = s.Coef
	}
	return weightedMean(avgs, coefs)
}

// weightedMean returns Σ(v·w)/Σw, or 0 when the weights sum to 0. When the
// sums overflow, the weights are divided by the largest one and the mean is
// taken again.
func weightedMean(values, weights []float64) float64 {
	weighted, total := weightedSums(values, weights, 1)
	if math.IsInf(weighted, 0) || math.IsInf(total, 0) {
		weighted, total = weightedSums(values, weights, slices.Max(weights))
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

func weightedSums(values, weights []float64, scale float64) (weighted, total float64) {
	for i, v := range values {
		w := weights[i] / scale
		weighted += v * w
		total += w
	}
	return weighted, total
}

// Round2 rounds v to two decimals, half away from zero. It is meant for
// display only; averages are aggregated unrounded.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
