package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/server/auth"
	"github.com/dmitrijs2005/familyrecipe/internal/server/services"
)

const maxBodyBytes = 1 << 20

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return errors.New("missing body")
	}
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// handleLogin answers 400 for missing credentials and 401 for every other
// failure, with the same body.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing credentials"})
		return
	}

	token, err := s.deps.Users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrMissingCredentials) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing credentials"})
			return
		}
		writeMessage(w, http.StatusUnauthorized, "Login failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", Token: token})
}

// authorizeRequest mirrors a gateway token authorizer event.
type authorizeRequest struct {
	Type               string `json:"type"`
	AuthorizationToken string `json:"authorizationToken"`
	MethodArn          string `json:"methodArn"`
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	d, err := s.deps.Authorizer.Authorize(r.Context(), req.AuthorizationToken, req.MethodArn)
	if err != nil {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleJWKS(w http.ResponseWriter, r *http.Request) {
	set, err := s.deps.Keys.JWKS(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

func (s *Server) handleRecipesTest(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusOK, "success")
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	page, err := s.deps.Recipes.List(r.Context(), identity(r).FamilyID, limit, q.Get("cursor"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var in services.NewRecipe
	if err := decodeBody(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing body"})
		return
	}

	rec, err := s.deps.Recipes.Create(r.Context(), identity(r), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	fileName := r.URL.Query().Get("fileName")
	if fileName == "" {
		writeMessage(w, http.StatusBadRequest, "Missing filename")
		return
	}

	key, url, err := s.deps.Recipes.PresignUpload(r.Context(), identity(r).FamilyID, fileName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Pre-signed URL generated successfully",
		"uploadUrl": url,
		"key":       key,
	})
}

type changePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing body"})
		return
	}
	if req.NewPassword == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing new password"})
		return
	}

	if err := s.deps.Users.ChangePassword(r.Context(), identity(r).Username, req.NewPassword); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed")
}
