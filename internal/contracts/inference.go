package contracts

// SignalVerdict is the structured reply of a signal synthesis call
type SignalVerdict struct {
	Signal        Signal `json:"signal"`
	Justification string `json:"justification"`
}

// TradeVerdict is the structured reply of the decision call, before clamping
type TradeVerdict struct {
	Action        Action `json:"action"`
	Shares        int64  `json:"shares"`
	Justification string `json:"justification"`
}
