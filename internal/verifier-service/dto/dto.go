package dto

// All curve material travels hex-encoded.

type SetKeyRequest struct {
	VkID    string   `json:"vk_id"`    // 32 bytes
	AlphaG1 string   `json:"alpha_g1"` // 64 bytes
	BetaG2  string   `json:"beta_g2"`  // 128 bytes
	GammaG2 string   `json:"gamma_g2"` // 128 bytes
	DeltaG2 string   `json:"delta_g2"` // 128 bytes
	IC      []string `json:"ic"`       // 64 bytes each, len >= 1
}

type SetKeyResponse struct {
	VkID         string `json:"vk_id"`
	PublicInputs int    `json:"public_inputs"`
}

type VerifyRequest struct {
	VkID         string   `json:"vk_id"`
	Proof        string   `json:"proof"` // 256 bytes
	PublicInputs []string `json:"public_inputs"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

type KeyStatusResponse struct {
	VkID      string `json:"vk_id"`
	Installed bool   `json:"installed"`
}
