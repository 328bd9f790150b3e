package asset

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"catalog-media/internal/domain"
	"catalog-media/internal/http-server/handler/asset/dto"
	"catalog-media/internal/usecase/ingest"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory = 32 << 20

	// multipart field carrying the image files
	filesField = "files"
)

type AssetHandler struct {
	usecase     ingestUsecase
	validate    *validator.Validate
	logger      *zlog.Zerolog
	maxBodySize int64
}

func NewAssetHandler(usecase ingestUsecase, logger *zlog.Zerolog, maxFileSize int64, maxFiles int) *AssetHandler {
	return &AssetHandler{
		usecase:     usecase,
		validate:    validator.New(),
		logger:      logger,
		maxBodySize: maxFileSize*int64(maxFiles) + maxMemory,
	}
}

// UploadAssets handles POST /api/{kind}/{ownerID}/images: a multipart batch
// of raw image bytes for one owner record.
func (h *AssetHandler) UploadAssets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, ownerID, err := h.ownerParams(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	headers := r.MultipartForm.File[filesField]
	if len(headers) == 0 {
		h.respondError(w, http.StatusBadRequest, "At least one file is required")
		return
	}

	files := make([]domain.IncomingFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Failed to open uploaded file")
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Failed to read uploaded file")
			return
		}
		files = append(files, domain.IncomingFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	result, err := h.usecase.Ingest(ctx, kind, ownerID, files)
	if err != nil {
		h.handleIngestError(w, err, kind, ownerID)
		return
	}

	h.logger.Info().
		Str("kind", string(kind)).
		Int64("owner_id", ownerID).
		Int("accepted", len(result.Accepted)).
		Int("rejected", len(result.Errors)).
		Msg("Upload handled")

	h.respondJSON(w, http.StatusOK, dto.Envelope{
		Success: len(result.Accepted) > 0,
		Data: dto.UploadData{
			Uploaded: toRefs(result.Accepted),
			Errors:   result.Errors,
		},
		Message: uploadMessage(result),
	})
}

// ListAssets handles GET /api/{kind}/{ownerID}/images.
func (h *AssetHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, ownerID, err := h.ownerParams(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	refs, err := h.usecase.ListAssets(ctx, kind, ownerID)
	if err != nil {
		h.handleIngestError(w, err, kind, ownerID)
		return
	}

	h.respondJSON(w, http.StatusOK, dto.Envelope{
		Success: true,
		Data:    dto.ListData{Images: toRefs(refs)},
	})
}

// DeleteAsset handles DELETE /api/assets/{id}. A missing row is 404; a
// failed physical deletion is not surfaced, the row is the source of truth.
func (h *AssetHandler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := chi.URLParam(r, "id")
	if err := h.validate.Var(id, "required,uuid4"); err != nil {
		h.respondError(w, http.StatusBadRequest, "Valid asset ID is required")
		return
	}

	if err := h.usecase.RemoveAsset(ctx, id); err != nil {
		if errors.Is(err, ingest.ErrAssetNotFound) {
			h.respondError(w, http.StatusNotFound, "Asset not found")
			return
		}
		h.logger.Error().Err(err).Str("asset_id", id).Msg("Failed to remove asset")
		h.respondError(w, http.StatusInternalServerError, "Failed to remove asset")
		return
	}

	h.respondJSON(w, http.StatusOK, dto.Envelope{
		Success: true,
		Message: "Asset removed",
	})
}

func (h *AssetHandler) ownerParams(r *http.Request) (domain.ResourceKind, int64, error) {
	kindStr := chi.URLParam(r, "kind")
	if err := h.validate.Var(kindStr, "required,oneof=product brand category banner"); err != nil {
		return "", 0, errors.New("unknown resource kind")
	}

	ownerID, err := strconv.ParseInt(chi.URLParam(r, "ownerID"), 10, 64)
	if err != nil || ownerID <= 0 {
		return "", 0, errors.New("owner ID must be a positive integer")
	}

	return domain.ResourceKind(kindStr), ownerID, nil
}

func (h *AssetHandler) handleIngestError(w http.ResponseWriter, err error, kind domain.ResourceKind, ownerID int64) {
	switch {
	case errors.Is(err, ingest.ErrOwnerNotFound):
		h.logger.Info().Str("kind", string(kind)).Int64("owner_id", ownerID).Msg("Owner not found")
		h.respondError(w, http.StatusNotFound, "Owner record not found")
	case errors.Is(err, ingest.ErrInvalidKind), errors.Is(err, ingest.ErrEmptyBatch):
		h.respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error().Err(err).Str("kind", string(kind)).Int64("owner_id", ownerID).Msg("Ingestion failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to process upload")
	}
}

func toRefs(refs []ingest.AssetRef) []dto.UploadedRef {
	out := make([]dto.UploadedRef, 0, len(refs))
	for _, r := range refs {
		out = append(out, dto.UploadedRef{
			ID:           r.ID,
			URL:          r.URL,
			OriginalName: r.OriginalName,
		})
	}
	return out
}

func uploadMessage(result *ingest.Result) string {
	switch {
	case len(result.Errors) == 0:
		return "All files uploaded"
	case len(result.Accepted) == 0:
		return "No files were accepted"
	default:
		return "Some files were rejected"
	}
}

func (h *AssetHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *AssetHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, dto.Envelope{
		Success: false,
		Message: message,
	})
}
