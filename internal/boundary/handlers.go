package boundary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"

	shverrors "github.com/jaspertzx/shardvault/internal/errors"
	"github.com/jaspertzx/shardvault/internal/orchestrator"
)

// handlers binds a *orchestrator.ShardOrchestrator to the httprouter
// handler functions below.
type handlers struct {
	orch *orchestrator.ShardOrchestrator
}

func newHandlers(orch *orchestrator.ShardOrchestrator) *handlers {
	return &handlers{orch: orch}
}

const maxUploadBytes = 1 << 30 // 1 GiB; matches the in-memory whole-file model's practical ceiling

func (h *handlers) uploadFile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ownerID := ownerIDFromRequest(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "request body exceeds 1 GiB or is a malformed multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing form field \"file\"", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("reading upload: %v", err), http.StatusInternalServerError)
		return
	}

	err = h.orch.Upload(r.Context(), ownerID, header.Filename, data)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "File successfully encoded and stored")
	case errors.Is(err, shverrors.ErrAlreadyExists):
		http.Error(w, "File already exists", http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *handlers) downloadFile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ownerID := ownerIDFromRequest(r)
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "missing filename query parameter", http.StatusBadRequest)
		return
	}

	data, err := h.orch.Retrieve(r.Context(), ownerID, filename)
	switch {
	case err == nil:
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	case errors.Is(err, shverrors.ErrNotFound):
		http.Error(w, "File not found or shards missing", http.StatusNotFound)
	case errors.Is(err, shverrors.ErrUnrecoverable):
		http.Error(w, "Not enough shards to reconstruct the file", http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *handlers) listFiles(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ownerID := ownerIDFromRequest(r)

	infos, err := h.orch.List(r.Context(), ownerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type fileInfoJSON struct {
		OriginalFilename  string `json:"original_filename"`
		OriginalFileSize  int64  `json:"original_file_size"`
		ShardsTotal       int    `json:"shards_total"`
		ShardsRetrievable int    `json:"shards_retrievable"`
	}
	out := make([]fileInfoJSON, len(infos))
	for i, info := range infos {
		out[i] = fileInfoJSON(info)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *handlers) deleteFile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ownerID := ownerIDFromRequest(r)
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "missing filename query parameter", http.StatusBadRequest)
		return
	}

	if err := h.orch.Delete(r.Context(), ownerID, filename); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	fmt.Fprint(w, "File deleted successfully")
}

// ownerIDFromRequest reads the owner_id the auth middleware stashed in
// the request context. Panics if called outside that middleware's
// chain, which would be a routing bug, not a runtime condition to
// handle gracefully.
func ownerIDFromRequest(r *http.Request) string {
	ownerID, ok := r.Context().Value(ownerIDContextKey).(string)
	if !ok {
		panic("boundary: handler invoked without authWrapper resolving an owner_id")
	}
	return ownerID
}
