package http

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/veilstar/wager-platform/internal/verifier-service/dto"
	"github.com/veilstar/wager-platform/internal/verifier-service/groth16"
	"github.com/veilstar/wager-platform/internal/verifier-service/service"
)

type Server struct {
	log        *zap.Logger
	svc        *service.Service
	adminToken string
}

func NewServer(log *zap.Logger, svc *service.Service, adminToken string) *Server {
	return &Server{log: log, svc: svc, adminToken: adminToken}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/keys", s.setKey)     // POST (admin)
	mux.HandleFunc("/keys/", s.keyStatus) // GET /keys/{vk_id}
	mux.HandleFunc("/verify", s.verify)   // POST
	return mux
}

// setKey installs a verification key. Admin-only.
func (s *Server) setKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("X-Admin-Token") != s.adminToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req dto.SetKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	vkID, ok := parseHex32(req.VkID)
	if !ok {
		http.Error(w, "vk_id must be 32 hex-encoded bytes", http.StatusBadRequest)
		return
	}

	vk := &groth16.VerificationKey{}
	var err error
	if vk.AlphaG1, err = hex.DecodeString(req.AlphaG1); err != nil {
		http.Error(w, "bad alpha_g1", http.StatusBadRequest)
		return
	}
	if vk.BetaG2, err = hex.DecodeString(req.BetaG2); err != nil {
		http.Error(w, "bad beta_g2", http.StatusBadRequest)
		return
	}
	if vk.GammaG2, err = hex.DecodeString(req.GammaG2); err != nil {
		http.Error(w, "bad gamma_g2", http.StatusBadRequest)
		return
	}
	if vk.DeltaG2, err = hex.DecodeString(req.DeltaG2); err != nil {
		http.Error(w, "bad delta_g2", http.StatusBadRequest)
		return
	}
	for _, icHex := range req.IC {
		point, err := hex.DecodeString(icHex)
		if err != nil {
			http.Error(w, "bad ic point", http.StatusBadRequest)
			return
		}
		vk.IC = append(vk.IC, point)
	}

	if err := s.svc.SetVerificationKey(r.Context(), vkID, vk); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, dto.SetKeyResponse{VkID: req.VkID, PublicInputs: vk.PublicInputs()})
}

// verify runs the pairing check. Always answers 200 with a boolean; an
// unverifiable proof is a result, not an error.
func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	vkID, ok := parseHex32(req.VkID)
	if !ok {
		writeJSON(w, dto.VerifyResponse{Valid: false})
		return
	}
	proof, err := hex.DecodeString(req.Proof)
	if err != nil {
		writeJSON(w, dto.VerifyResponse{Valid: false})
		return
	}
	inputs := make([][32]byte, 0, len(req.PublicInputs))
	for _, inputHex := range req.PublicInputs {
		input, ok := parseHex32(inputHex)
		if !ok {
			writeJSON(w, dto.VerifyResponse{Valid: false})
			return
		}
		inputs = append(inputs, input)
	}

	valid := s.svc.VerifyRoundProof(r.Context(), vkID, proof, inputs)
	writeJSON(w, dto.VerifyResponse{Valid: valid})
}

// keyStatus reports whether a key id has installed material.
func (s *Server) keyStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	idHex := r.URL.Path[len("/keys/"):]
	vkID, ok := parseHex32(idHex)
	if !ok {
		http.Error(w, "vk_id must be 32 hex-encoded bytes", http.StatusBadRequest)
		return
	}
	installed, err := s.svc.HasKey(r.Context(), vkID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.KeyStatusResponse{VkID: idHex, Installed: installed})
}

func parseHex32(s string) ([32]byte, bool) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return out, false
	}
	copy(out[:], raw)
	return out, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
