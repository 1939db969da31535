package grading

import "github.com/isimg/moyenne/internal/catalog"

// SubjectResult is the computed outcome for one subject.
type SubjectResult struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Coef    float64 `json:"coef"`
	Formula Formula `json:"formula"`
	Average float64 `json:"average"`
	Passed  bool    `json:"passed"`
}

// Result is the outcome of a whole semester.
type Result struct {
	Subjects  []SubjectResult `json:"subjects"`
	Average   float64         `json:"average"`
	TotalCoef float64         `json:"total_coef"`
	Passed    bool            `json:"passed"`
}

// Compute evaluates every subject and the overall average in one pass.
func Compute(subjects []catalog.Subject, m Marks) Result {
	res := Result{Subjects: make([]SubjectResult, 0, len(subjects))}

	avgs := make([]float64, 0, len(subjects))
	coefs := make([]float64, 0, len(subjects))
	for _, s := range subjects {
		f := Classify(s.Inputs)
		avg := subjectAverage(s, f, m)
		res.Subjects = append(res.Subjects, SubjectResult{
			ID:      s.ID,
			Name:    s.Name,
			Coef:    s.Coef,
			Formula: f,
			Average: avg,
			Passed:  avg >= PassMark,
		})
		avgs = append(avgs, avg)
		coefs = append(coefs, s.Coef)
		res.TotalCoef += s.Coef
	}

	res.Average = weightedMean(avgs, coefs)
	res.Passed = res.Average >= PassMark
	return res
}
