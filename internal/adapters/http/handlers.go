package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/pdf-summary-service/internal/core/domain"
	"github.com/kirillkom/pdf-summary-service/internal/core/ports"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Failf(domain.ErrValidation, "invalid json", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	return parseID(chi.URLParam(r, "id"), "id")
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Fail(domain.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}

// currentUser is only called behind authMiddleware.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, domain.Fail(domain.ErrUnauthorized, "not authenticated"))
	}
	return user, ok
}

func (rt *Router) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := rt.auth.Register(r.Context(), ports.RegisterInput{
		FullName: req.FullName,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user.Public())
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	// Accepts both url-encoded and multipart password forms.
	if err := r.ParseMultipartForm(maxLoginFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, r, domain.Failf(domain.ErrValidation, "invalid form body", err))
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if strings.TrimSpace(username) == "" || password == "" {
		writeError(w, r, domain.Fail(domain.ErrValidation, "username and password are required"))
		return
	}

	token, err := rt.auth.Login(r.Context(), username, password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (rt *Router) listFiles(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	files, err := rt.files.List(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// uploadFile streams the "file" part straight into storage without buffering
// the multipart form.
func (rt *Router) uploadFile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, rt.maxUploadBytes+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		writeError(w, r, domain.Failf(domain.ErrValidation, "multipart form body is required", err))
		return
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			writeError(w, r, uploadReadError(err))
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		filename := part.FileName()
		if strings.TrimSpace(filename) == "" {
			_ = part.Close()
			writeError(w, r, domain.Fail(domain.ErrValidation, "uploaded file must have a name"))
			return
		}
		file, err := rt.files.Upload(r.Context(), user, filename, part)
		_ = part.Close()
		if err != nil {
			writeError(w, r, uploadReadError(err))
			return
		}
		writeJSON(w, http.StatusCreated, file)
		return
	}
	writeError(w, r, domain.Fail(domain.ErrValidation, "multipart field 'file' is required"))
}

func uploadReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.Failf(domain.ErrValidation, "file exceeds the maximum allowed size", err)
	}
	return err
}

func (rt *Router) getFile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	file, err := rt.files.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (rt *Router) downloadFile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	file, body, err := rt.files.Open(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.FileName})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	if file.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("download_interrupted",
			"request_id", requestIDFromContext(r.Context()),
			"file_id", file.ID,
			"error", err.Error(),
		)
	}
}

func (rt *Router) summarizeSingle(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	fileID, err := parseID(r.URL.Query().Get("file_id"), "file_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := rt.summaries.SummarizeSingle(r.Context(), user, fileID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) summarizeMulti(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		FileIDs []int64 `json:"file_ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := rt.summaries.SummarizeMulti(r.Context(), user, req.FileIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) listSummaries(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	summaries, err := rt.summaries.List(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (rt *Router) getSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := rt.summaries.Get(r.Context(), user, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (rt *Router) getProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	profile, err := rt.profile.GetProfile(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (rt *Router) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxProfileBodyBytes)
	if err := r.ParseMultipartForm(maxProfileBodyBytes); err != nil {
		writeError(w, r, uploadReadError(domain.Failf(domain.ErrValidation, "invalid multipart form", err)))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	var input ports.UpdateProfileInput
	if values, ok := r.MultipartForm.Value["full_name"]; ok && len(values) > 0 {
		input.FullName = &values[0]
	}
	if values, ok := r.MultipartForm.Value["description"]; ok && len(values) > 0 {
		input.Description = &values[0]
	}
	if headers := r.MultipartForm.File["image"]; len(headers) > 0 {
		header := headers[0]
		file, err := header.Open()
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer file.Close()
		input.Image = &ports.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
	}

	updated, err := rt.profile.UpdateProfile(r.Context(), user, input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (rt *Router) deleteAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := rt.profile.DeleteAccount(r.Context(), user); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
