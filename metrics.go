package rabbits

import (
	"bytes"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
)

// Counts is a binary confusion matrix.
type Counts struct {
	TP int
	FP int
	TN int
	FN int
}

// N returns the total number of classified rows.
func (c Counts) N() int {
	return c.TP + c.FP + c.TN + c.FN
}

// Add returns the element-wise sum of two confusion matrices.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		TP: c.TP + o.TP,
		FP: c.FP + o.FP,
		TN: c.TN + o.TN,
		FN: c.FN + o.FN,
	}
}

// FScore is one F-beta score in addition to F1.
type FScore struct {
	Beta  float64
	Key   string
	Value float64
}

// Metrics holds the confusion matrix and every score derived from it.
// Rates whose denominator is zero are NaN.
type Metrics struct {
	Counts

	Prevalence       float64
	Accuracy         float64
	BalancedAccuracy float64
	Precision        float64
	Recall           float64
	Specificity      float64
	NPV              float64
	FPR              float64
	FNR              float64
	F1               float64
	FBeta            []FScore
	YoudenJ          float64
	MCC              float64
}

// FBetaKey returns the output key for a beta weight, e.g. "f0.5" or "f2".
func FBetaKey(beta float64) string {
	return "f" + strconv.FormatFloat(beta, 'f', -1, 64)
}

// Keys returns the metric names in output order.
func (m Metrics) Keys() []string {
	keys := []string{"prevalence", "tp", "fp", "tn", "fn", "n",
		"accuracy", "balanced_accuracy", "precision", "recall", "specificity",
		"npv", "fpr", "fnr", "f1"}
	for _, f := range m.FBeta {
		keys = append(keys, f.Key)
	}
	return append(keys, "youden_j", "mcc")
}

// Values returns the metrics as a name to value mapping.
func (m Metrics) Values() map[string]float64 {
	v := map[string]float64{
		"prevalence":        m.Prevalence,
		"tp":                float64(m.TP),
		"fp":                float64(m.FP),
		"tn":                float64(m.TN),
		"fn":                float64(m.FN),
		"n":                 float64(m.N()),
		"accuracy":          m.Accuracy,
		"balanced_accuracy": m.BalancedAccuracy,
		"precision":         m.Precision,
		"recall":            m.Recall,
		"specificity":       m.Specificity,
		"npv":               m.NPV,
		"fpr":               m.FPR,
		"fnr":               m.FNR,
		"f1":                m.F1,
		"youden_j":          m.YoudenJ,
		"mcc":               m.MCC,
	}
	for _, f := range m.FBeta {
		v[f.Key] = f.Value
	}
	return v
}

// Value looks up a single metric by name.
func (m Metrics) Value(key string) (float64, bool) {
	switch key {
	case "prevalence":
		return m.Prevalence, true
	case "tp":
		return float64(m.TP), true
	case "fp":
		return float64(m.FP), true
	case "tn":
		return float64(m.TN), true
	case "fn":
		return float64(m.FN), true
	case "n":
		return float64(m.N()), true
	case "accuracy":
		return m.Accuracy, true
	case "balanced_accuracy":
		return m.BalancedAccuracy, true
	case "precision":
		return m.Precision, true
	case "recall":
		return m.Recall, true
	case "specificity":
		return m.Specificity, true
	case "npv":
		return m.NPV, true
	case "fpr":
		return m.FPR, true
	case "fnr":
		return m.FNR, true
	case "f1":
		return m.F1, true
	case "youden_j":
		return m.YoudenJ, true
	case "mcc":
		return m.MCC, true
	}
	for _, f := range m.FBeta {
		if f.Key == key {
			return f.Value, true
		}
	}
	return 0, false
}

func isCount(key string) bool {
	switch key {
	case "tp", "fp", "tn", "fn", "n":
		return true
	}
	return false
}

// MarshalJSON encodes the metrics as an object in Keys order.
// Counts are integers and NaN rates are null.
func (m Metrics) MarshalJSON() ([]byte, error) {
	values := m.Values()
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')

		v := values[key]
		switch {
		case isCount(key):
			buf.WriteString(strconv.FormatInt(int64(v), 10))
		case math.IsNaN(v) || math.IsInf(v, 0):
			buf.WriteString("null")
		default:
			buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SafeDiv divides num by den, returning NaN instead of an infinity or a
// panic when den is zero.
func SafeDiv(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// FBetaScore is the weighted harmonic mean of precision and recall.
// It is NaN when either input is NaN and 0 when both are 0.
func FBetaScore(precision, recall, beta float64) float64 {
	if math.IsNaN(precision) || math.IsNaN(recall) {
		return math.NaN()
	}
	if precision+recall == 0 {
		return 0
	}
	b2 := beta * beta
	return (1 + b2) * precision * recall / (b2*precision + recall)
}

// meanOf averages two rates, propagating NaN.
func meanOf(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return (a + b) / 2
}

func youden(recall, specificity float64) float64 {
	if math.IsNaN(recall) || math.IsNaN(specificity) {
		return math.NaN()
	}
	return recall + specificity - 1
}

func mcc(c Counts) float64 {
	tp, fp, tn, fn := float64(c.TP), float64(c.FP), float64(c.TN), float64(c.FN)
	den := math.Sqrt((tp + fp) * (tp + fn) * (tn + fp) * (tn + fn))
	return SafeDiv(tp*tn-fp*fn, den)
}

// derive computes every metric from counts. betas must already be normalized.
func derive(c Counts, betas []float64) Metrics {
	tp, fp, tn, fn := float64(c.TP), float64(c.FP), float64(c.TN), float64(c.FN)
	n := float64(c.N())

	m := Metrics{
		Counts:      c,
		Prevalence:  SafeDiv(tp+fn, n),
		Accuracy:    SafeDiv(tp+tn, n),
		Precision:   SafeDiv(tp, tp+fp),
		Recall:      SafeDiv(tp, tp+fn),
		Specificity: SafeDiv(tn, tn+fp),
		FPR:         SafeDiv(fp, fp+tn),
		FNR:         SafeDiv(fn, fn+tp),
		NPV:         SafeDiv(tn, tn+fn),
		MCC:         mcc(c),
	}
	m.BalancedAccuracy = meanOf(m.Recall, m.Specificity)
	m.YoudenJ = youden(m.Recall, m.Specificity)
	m.F1 = FBetaScore(m.Precision, m.Recall, 1)

	for _, beta := range betas {
		m.FBeta = append(m.FBeta, FScore{
			Beta:  beta,
			Key:   FBetaKey(beta),
			Value: FBetaScore(m.Precision, m.Recall, beta),
		})
	}
	return m
}
