package app

// DevState is reported by GET /__dev/ready.
type DevState struct {
	OK        bool   `json:"ok"`
	State     string `json:"state"`
	Demo      string `json:"demo"`
	RenderSeq int    `json:"render_seq"`
	Rendered  bool   `json:"rendered"`
	Pending   bool   `json:"pending"`
	Error     string `json:"error"`
	Phase     string `json:"phase"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
}

type demoRequest struct {
	Demo string `json:"demo"`
}
