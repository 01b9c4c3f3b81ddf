package classification

import "github.com/stoik/email-fraud-classifier/internal/domain"

// Accuracy returns the fraction of exact label matches.
// An empty set scores 0.
func Accuracy(yTrue, yPred []domain.Label) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// ClassificationReport computes precision, recall, F1 and support for each label.
// Undefined ratios (no predictions or no support) are reported as 0.
func ClassificationReport(yTrue, yPred []domain.Label) []domain.ClassReport {
	reports := make([]domain.ClassReport, 0, len(domain.Labels))
	for _, label := range domain.Labels {
		tp, fp, fn := 0, 0, 0
		for i := range yTrue {
			switch {
			case yPred[i] == label && yTrue[i] == label:
				tp++
			case yPred[i] == label && yTrue[i] != label:
				fp++
			case yPred[i] != label && yTrue[i] == label:
				fn++
			}
		}

		r := domain.ClassReport{Label: label, Support: tp + fn}
		if tp+fp > 0 {
			r.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			r.Recall = float64(tp) / float64(tp+fn)
		}
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		reports = append(reports, r)
	}
	return reports
}
