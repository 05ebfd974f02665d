package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/decksync/decksync/app/database"
	"github.com/decksync/decksync/app/github"
	syncer "github.com/decksync/decksync/app/sync"
)

// assetURLExpiry bounds presigned asset download links.
const assetURLExpiry = time.Hour

func NewHandler(sourceRepo database.SourceRepository, itemRepo database.ItemRepository,
	assetRepo database.AssetRepository, s SyncerInterface, store syncer.ObjectStore,
	jwtSecret, schedulerKey string) *Handler {
	return &Handler{
		sourceRepo:   sourceRepo,
		itemRepo:     itemRepo,
		assetRepo:    assetRepo,
		syncer:       s,
		store:        store,
		jwtSecret:    jwtSecret,
		schedulerKey: schedulerKey,
	}
}

// HandleAction dispatches the single-envelope API. check_updates
// authenticates with the scheduler access key; every other action carries a
// user JWT.
func (h *Handler) HandleAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if req.Action == "check_updates" {
		h.checkUpdates(c)
		return
	}

	userID, err := h.userFromRequest(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "details": err.Error()})
		return
	}

	switch req.Action {
	case "add_source":
		h.addSource(c, userID, &req)
	case "sync_source":
		h.syncSource(c, userID, &req)
	case "delete_source":
		h.deleteSource(c, userID, &req)
	case "get_sources":
		h.getSources(c, userID)
	case "get_items":
		h.getItems(c, userID, &req)
	case "get_all_items":
		h.getAllItems(c, userID)
	case "get_stats":
		h.getStats(c, userID)
	case "validate_credential":
		h.validateCredential(c, userID, &req)
	case "update_credential":
		h.updateCredential(c, userID, &req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown action %q", req.Action)})
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

func (h *Handler) addSource(c *gin.Context, userID string, req *ActionRequest) {
	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url"})
		return
	}

	source, err := h.syncer.Import(c.Request.Context(), userID, req.URL, req.Token, req.IsPrivate)
	if err != nil {
		slog.Error("Import failed", "user_id", userID, "url", req.URL, "error", err)
		c.JSON(errorStatus(err), gin.H{"error": "Failed to add source", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"source": newSourceResponse(source)})
}

func (h *Handler) syncSource(c *gin.Context, userID string, req *ActionRequest) {
	if req.SourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source_id"})
		return
	}

	source, err := h.syncer.Resync(c.Request.Context(), req.SourceID, userID)
	if err != nil {
		slog.Error("Sync failed", "user_id", userID, "source_id", req.SourceID, "error", err)
		if source != nil {
			// The sync ran and failed; the source row records the outcome.
			c.JSON(errorStatus(err), gin.H{
				"error":   "Sync failed",
				"details": err.Error(),
				"source":  newSourceResponse(source),
			})
			return
		}
		c.JSON(errorStatus(err), gin.H{"error": "Sync failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"source": newSourceResponse(source)})
}

func (h *Handler) deleteSource(c *gin.Context, userID string, req *ActionRequest) {
	if req.SourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source_id"})
		return
	}

	if err := h.syncer.Delete(c.Request.Context(), req.SourceID, userID); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": "Failed to delete source", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) getSources(c *gin.Context, userID string) {
	sources, err := h.sourceRepo.ListSourcesForUser(userID)
	if err != nil {
		slog.Error("Database error", "operation", "get_sources", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]SourceResponse, 0, len(sources))
	for i := range sources {
		out = append(out, newSourceResponse(&sources[i]))
	}
	c.JSON(http.StatusOK, gin.H{"sources": out, "total": len(out)})
}

func (h *Handler) getItems(c *gin.Context, userID string, req *ActionRequest) {
	if req.SourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source_id"})
		return
	}

	source, err := h.sourceRepo.GetSourceForUser(req.SourceID, userID)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "source_id", req.SourceID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	items, err := h.itemRepo.GetItems(source.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "source_id", source.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	itemIDs := make([]string, 0, len(items))
	for i := range items {
		itemIDs = append(itemIDs, items[i].ID)
	}
	assetsByItem, err := h.assetRepo.GetAssetsForItems(itemIDs)
	if err != nil {
		slog.Error("Database error", "operation", "get_assets", "source_id", source.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		item := newItemResponse(&items[i])
		for _, asset := range assetsByItem[items[i].ID] {
			url, err := h.store.SignedGetURL(c.Request.Context(), asset.StoragePath, assetURLExpiry)
			if err != nil {
				slog.Warn("Failed to presign asset", "asset_id", asset.ID, "error", err)
				continue
			}
			item.Assets = append(item.Assets, AssetResponse{
				OriginalPath: asset.OriginalPath,
				URL:          url,
				MimeType:     asset.MimeType,
				SizeBytes:    asset.SizeBytes,
			})
		}
		out = append(out, item)
	}

	c.JSON(http.StatusOK, gin.H{"items": out, "total": len(out)})
}

func (h *Handler) getAllItems(c *gin.Context, userID string) {
	items, err := h.itemRepo.GetAllItemsForUser(userID)
	if err != nil {
		slog.Error("Database error", "operation", "get_all_items", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]ItemResponse, 0, len(items))
	for i := range items {
		out = append(out, newItemResponse(&items[i]))
	}
	c.JSON(http.StatusOK, gin.H{"items": out, "total": len(out)})
}

func (h *Handler) getStats(c *gin.Context, userID string) {
	sourceCount, itemCount, err := h.sourceRepo.GetUserStats(userID)
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source_count": sourceCount,
		"item_count":   itemCount,
	})
}

// validateCredential has two shapes: with a url it dry-checks a candidate
// token before any source exists; with a source_id it revalidates the stored
// token and records the outcome on the source.
func (h *Handler) validateCredential(c *gin.Context, userID string, req *ActionRequest) {
	if req.URL != "" {
		if err := h.syncer.CheckCredential(c.Request.Context(), req.URL, req.Token); err != nil {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"valid": true})
		return
	}

	if req.SourceID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url or source_id"})
		return
	}

	status, err := h.syncer.ValidateCredential(c.Request.Context(), req.SourceID, userID)
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": "Failed to validate credential", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":             status == database.CredentialValid || status == database.CredentialNotRequired,
		"credential_status": status,
	})
}

func (h *Handler) updateCredential(c *gin.Context, userID string, req *ActionRequest) {
	if req.SourceID == "" || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing source_id or token"})
		return
	}

	if err := h.syncer.UpdateCredential(c.Request.Context(), req.SourceID, userID, req.Token); err != nil {
		c.JSON(errorStatus(err), gin.H{"error": "Failed to update credential", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"credential_status": database.CredentialValid})
}

func (h *Handler) checkUpdates(c *gin.Context) {
	if h.schedulerKey == "" || c.GetHeader("X-Scheduler-Key") != h.schedulerKey {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid scheduler key"})
		return
	}

	updated, errs := h.syncer.Sweep(c.Request.Context())

	response := gin.H{"updated": updated}
	if len(errs) > 0 {
		response["errors"] = errs
	}
	c.JSON(http.StatusOK, response)
}

// userFromRequest verifies the bearer JWT and extracts the subject claim.
// Tokens are minted by the external auth service; only HMAC signatures with
// the shared secret are accepted.
func (h *Handler) userFromRequest(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.New("missing bearer token")
	}

	token, err := jwt.Parse(strings.TrimPrefix(authHeader, "Bearer "), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(h.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("token has no subject")
	}
	return subject, nil
}

// errorStatus maps orchestrator errors onto HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, github.ErrInvalidSourceURL):
		return http.StatusBadRequest
	case errors.Is(err, syncer.ErrSourceExists):
		return http.StatusConflict
	case errors.Is(err, syncer.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, syncer.ErrMissingCredential):
		return http.StatusUnprocessableEntity
	case errors.Is(err, syncer.ErrManifestInvalid):
		return http.StatusUnprocessableEntity
	case github.IsAuthError(err):
		return http.StatusUnauthorized
	case github.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
