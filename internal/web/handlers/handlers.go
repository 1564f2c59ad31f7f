package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Jordanrcarlson/jordancloud/internal/auth"
	"github.com/Jordanrcarlson/jordancloud/internal/blob"
	"github.com/Jordanrcarlson/jordancloud/internal/cache"
	"github.com/Jordanrcarlson/jordancloud/internal/config"
	"github.com/Jordanrcarlson/jordancloud/internal/logger"
	"github.com/Jordanrcarlson/jordancloud/internal/media"
	"github.com/Jordanrcarlson/jordancloud/internal/recon"
	"github.com/Jordanrcarlson/jordancloud/internal/storage"
)

// Handlers содержит все HTTP-обработчики
type Handlers struct {
	cfg        *config.Config
	store      *storage.Store
	blobs      *blob.Store
	media      *media.Service
	thumbs     *media.Thumbnailer
	gate       *auth.Gate
	listings   *cache.ListingCache
	reconciler *recon.Reconciler
	janitor    *recon.Janitor
}

// NewHandlers создает обработчики
func NewHandlers(
	cfg *config.Config,
	store *storage.Store,
	blobs *blob.Store,
	mediaSvc *media.Service,
	thumbs *media.Thumbnailer,
	gate *auth.Gate,
	listings *cache.ListingCache,
	reconciler *recon.Reconciler,
	janitor *recon.Janitor,
) *Handlers {
	return &Handlers{
		cfg:        cfg,
		store:      store,
		blobs:      blobs,
		media:      mediaSvc,
		thumbs:     thumbs,
		gate:       gate,
		listings:   listings,
		reconciler: reconciler,
		janitor:    janitor,
	}
}

// === Загрузка и листинг файлов ===

// Upload принимает multipart-форму с файлами и полем folder
func (h *Handlers) Upload(w http.ResponseWriter, r *http.Request) {
	// Лимит на всё тело запроса чуть больше лимита файла: клиент
	// не может заставить сервер вычитать гигабайты во временные файлы
	bodyLimit := h.cfg.MaxUploadBytes() + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)

	if err := r.ParseMultipartForm(bodyLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.jsonError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.jsonResponse(w, http.StatusBadRequest, map[string]interface{}{"error": "No file uploaded"})
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		h.jsonResponse(w, http.StatusBadRequest, map[string]interface{}{"error": "No file uploaded"})
		return
	}

	folder := storage.Folder(r.FormValue("folder"))

	items := make([]media.UploadItem, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.jsonError(w, http.StatusInternalServerError, "Failed to read uploaded file")
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, h.cfg.MaxUploadBytes()+1))
		f.Close()
		if err != nil {
			h.jsonError(w, http.StatusInternalServerError, "Failed to read uploaded file")
			return
		}
		items = append(items, media.UploadItem{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Data:     data,
		})
	}

	// Один файл — плоский ответ, как ожидают клиенты
	if len(items) == 1 {
		m, err := h.media.Upload(items[0].Data, items[0].Name, items[0].MimeType, folder)
		if err != nil {
			status := http.StatusInternalServerError
			if media.IsValidation(err) {
				status = http.StatusBadRequest
			}
			h.jsonError(w, status, err.Error())
			return
		}
		h.listings.Invalidate()
		h.jsonResponse(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"path":    m.URL,
			"type":    m.Type,
		})
		return
	}

	results := h.media.UploadBatch(items, folder)
	h.listings.Invalidate()

	out := make([]map[string]interface{}, 0, len(results))
	allOK := true
	for _, res := range results {
		entry := map[string]interface{}{"name": res.Name}
		if res.Err != nil {
			entry["error"] = res.Err.Error()
			allOK = false
		} else {
			entry["path"] = res.Media.URL
			entry["type"] = res.Media.Type
		}
		out = append(out, entry)
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success": allOK,
		"files":   out,
	})
}

// ListFiles возвращает URL всех файлов на диске
func (h *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	names, err := h.blobs.List()
	if err != nil {
		h.jsonResponse(w, http.StatusInternalServerError, map[string]interface{}{
			"message": "Failed to list files",
			"error":   err.Error(),
		})
		return
	}

	urls := make([]string, 0, len(names))
	for _, name := range names {
		urls = append(urls, h.blobs.URL(name))
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"files": urls})
}

type deleteRequest struct {
	IDs   []string `json:"ids"`
	Paths []string `json:"paths"`
}

// Delete помечает записи удалёнными и убирает перечисленные файлы с диска
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.media.SoftDelete(req.IDs); err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to delete media")
		return
	}
	h.media.RemoveFiles(req.Paths)
	h.listings.Invalidate()

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// === Медиа ===

// ListMedia возвращает медиа по фильтру folder и deleted.
// Личная папка требует действующей сессии.
func (h *Handlers) ListMedia(w http.ResponseWriter, r *http.Request) {
	filter := storage.ListFilter{
		Folder:  storage.Folder(r.URL.Query().Get("folder")),
		Deleted: r.URL.Query().Get("deleted") == "true",
	}

	if filter.Folder != "" && !storage.ValidFolder(filter.Folder) {
		h.jsonError(w, http.StatusBadRequest, "Unknown folder")
		return
	}
	if filter.Folder == storage.FolderPersonal && !h.gate.FromRequest(r) {
		h.jsonError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	// Листинг без фильтра показывает личную папку только с сессией
	if filter.Folder == "" && !h.gate.FromRequest(r) {
		filter.Folder = storage.FolderPublic
	}

	list, err := h.listings.ListMedia(filter)
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to list media")
		return
	}
	if list == nil {
		list = []*storage.Media{}
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"media": list})
}

// Restore возвращает медиа из корзины
func (h *Handlers) Restore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.media.Restore(id); err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to restore media")
		return
	}
	h.listings.Invalidate()
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ServeThumbnail отдает превью, генерируя его при необходимости.
// Если превью сделать нельзя, отдается SVG-заглушка.
func (h *Handlers) ServeThumbnail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	size := chi.URLParam(r, "size")

	if size != media.ThumbSmall && size != media.ThumbLarge {
		h.jsonError(w, http.StatusBadRequest, "Unknown thumbnail size")
		return
	}

	m, err := h.store.GetMedia(id)
	if err != nil || m == nil {
		h.jsonError(w, http.StatusNotFound, "Media not found")
		return
	}

	if !h.thumbs.Exists(m.ID, size) {
		if _, err := h.thumbs.Generate(m, h.blobs.Path(m.Filename), size); err != nil {
			logger.ErrorLog.Printf("[WEB] thumbnail generation failed for %s: %v", m.ID, err)
			h.servePlaceholder(w, m)
			return
		}
	}

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, h.thumbs.Path(m.ID, size))
}

func (h *Handlers) servePlaceholder(w http.ResponseWriter, m *storage.Media) {
	label := "IMG"
	if m.Type == storage.MediaTypeVideo {
		label = "VID"
	}
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="300" height="300">`+
		`<rect width="100%%" height="100%%" fill="#2a2a2a"/>`+
		`<text x="50%%" y="50%%" fill="#888" font-family="sans-serif" font-size="32" text-anchor="middle" dominant-baseline="middle">%s</text></svg>`, label)

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(svg))
}

// === Обслуживание ===

// StartReconcile ставит сверку с диском в очередь
func (h *Handlers) StartReconcile(w http.ResponseWriter, r *http.Request) {
	if h.reconciler.IsRunning() {
		h.jsonResponse(w, http.StatusConflict, map[string]interface{}{
			"queued":  false,
			"message": "Reconcile already in progress",
		})
		return
	}
	queued := h.janitor.TriggerReconcile()
	h.jsonResponse(w, http.StatusAccepted, map[string]interface{}{"queued": queued})
}

// ReconcileProgress возвращает прогресс последней сверки
func (h *Handlers) ReconcileProgress(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.reconciler.Progress())
}

// StartCleanup ставит чистку корзины в очередь
func (h *Handlers) StartCleanup(w http.ResponseWriter, r *http.Request) {
	queued := h.janitor.TriggerPurge()
	h.jsonResponse(w, http.StatusAccepted, map[string]interface{}{"queued": queued})
}

// Stats возвращает статистику библиотеки
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.listings.Stats()
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to get stats")
		return
	}
	h.jsonResponse(w, http.StatusOK, stats)
}

// === Альбомы ===

type albumRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type albumMediaRequest struct {
	MediaIDs []string `json:"media_ids"`
}

// ListAlbums возвращает все альбомы
func (h *Handlers) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.store.ListAlbums()
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to list albums")
		return
	}
	if albums == nil {
		albums = []*storage.Album{}
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"albums": albums})
}

// CreateAlbum создает альбом
func (h *Handlers) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req albumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.jsonError(w, http.StatusBadRequest, "Album name is required")
		return
	}

	album := &storage.Album{
		ID:          storage.NewID(),
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := h.store.SaveAlbum(album); err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to create album")
		return
	}
	h.jsonResponse(w, http.StatusCreated, album)
}

// GetAlbum возвращает альбом по ID
func (h *Handlers) GetAlbum(w http.ResponseWriter, r *http.Request) {
	album, err := h.store.GetAlbum(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to get album")
		return
	}
	if album == nil {
		h.jsonError(w, http.StatusNotFound, "Album not found")
		return
	}
	h.jsonResponse(w, http.StatusOK, album)
}

// UpdateAlbum меняет имя и описание альбома
func (h *Handlers) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	album, err := h.store.GetAlbum(chi.URLParam(r, "id"))
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to get album")
		return
	}
	if album == nil {
		h.jsonError(w, http.StatusNotFound, "Album not found")
		return
	}

	var req albumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		album.Name = name
	}
	album.Description = req.Description
	album.UpdatedAt = time.Now()

	if err := h.store.SaveAlbum(album); err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to update album")
		return
	}
	h.jsonResponse(w, http.StatusOK, album)
}

// DeleteAlbum удаляет альбом вместе с членством, медиа не трогаются
func (h *Handlers) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAlbum(chi.URLParam(r, "id")); err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to delete album")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetAlbumMedia возвращает медиа альбома
func (h *Handlers) GetAlbumMedia(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "id")

	album, err := h.store.GetAlbum(albumID)
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to get album")
		return
	}
	if album == nil {
		h.jsonError(w, http.StatusNotFound, "Album not found")
		return
	}

	list, err := h.store.GetAlbumMedia(albumID)
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to get album media")
		return
	}
	if list == nil {
		list = []*storage.Media{}
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"media": list})
}

// AddToAlbum добавляет медиа в альбом, дубликаты игнорируются
func (h *Handlers) AddToAlbum(w http.ResponseWriter, r *http.Request) {
	var req albumMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.store.AddMediaToAlbum(chi.URLParam(r, "id"), req.MediaIDs)
	if errors.Is(err, storage.ErrAlbumNotFound) {
		h.jsonError(w, http.StatusNotFound, "Album not found")
		return
	}
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to add media to album")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// RemoveFromAlbum удаляет медиа из альбома
func (h *Handlers) RemoveFromAlbum(w http.ResponseWriter, r *http.Request) {
	var req albumMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.store.RemoveMediaFromAlbum(chi.URLParam(r, "id"), req.MediaIDs)
	if errors.Is(err, storage.ErrAlbumNotFound) {
		h.jsonError(w, http.StatusNotFound, "Album not found")
		return
	}
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to remove media from album")
		return
	}
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// === Личная папка ===

type verifyRequest struct {
	Password string `json:"password"`
}

// VerifyPersonal проверяет пароль личной папки и выдает сессию
func (h *Handlers) VerifyPersonal(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := h.gate.Verify(req.Password)
	if errors.Is(err, auth.ErrWrongPassword) {
		h.jsonResponse(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false,
			"error":   "Invalid password",
		})
		return
	}
	if err != nil {
		h.jsonError(w, http.StatusInternalServerError, "Failed to verify password")
		return
	}

	h.gate.SetCookie(w, sess)
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// LogoutPersonal закрывает сессию личной папки
func (h *Handlers) LogoutPersonal(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		h.gate.Logout(cookie.Value)
	}
	h.gate.ClearCookie(w)
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{"success": true})
}

// === Вспомогательные функции ===

func (h *Handlers) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.ErrorLog.Printf("[WEB] failed to encode response: %v", err)
	}
}

func (h *Handlers) jsonError(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]interface{}{"error": message})
}
