package model

// Verdict is the page judge's answer to "is this page the company's own site".
type Verdict struct {
	Match      bool    `json:"match"`
	Confidence float64 `json:"confidence"`
	Evidence   string  `json:"evidence,omitempty"`
}
