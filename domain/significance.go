package domain

type Significance struct {
	P1          float64 `json:"p1"`
	P2          float64 `json:"p2"`
	Diff        float64 `json:"diff"`
	Z           float64 `json:"z"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

type VariantComparison struct {
	Control      VariantStats `json:"control"`
	Treatment    VariantStats `json:"treatment"`
	Significance Significance `json:"significance"`
}

type ExperimentReport struct {
	Experiment  string              `json:"experiment"`
	Variants    []VariantStats      `json:"variants"`
	Comparisons []VariantComparison `json:"comparisons"`
}
