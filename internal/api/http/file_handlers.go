package http

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/quiz-arena/quiz-arena/internal/quiz"
	"github.com/quiz-arena/quiz-arena/internal/storage"

	"github.com/google/uuid"
)

func ListFilesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := quiz.FileListOpts{
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
			Sort:   r.URL.Query().Get("sort"),
		}
		if raw := r.URL.Query().Get("folder_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "folder_id must be an integer", http.StatusBadRequest)
				return
			}
			opts.FolderID = &id
		}
		files, err := store.ListFiles(r.Context(), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		items := make([]map[string]interface{}, 0, len(files))
		for _, f := range files {
			items = append(items, fileView(f))
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func UploadFileHandler(store quiz.Store, blobs *storage.FSStore, maxUploadBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			http.Error(w, "bad multipart form", http.StatusBadRequest)
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		var folderID *int64
		if raw := r.FormValue("folder_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				http.Error(w, "folder_id must be an integer", http.StatusBadRequest)
				return
			}
			if _, err := store.GetFolder(r.Context(), id); err != nil {
				writeError(w, err)
				return
			}
			folderID = &id
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		storedName := uuid.NewString() + ext
		size, err := blobs.Put(storedName, file)
		if err != nil {
			writeError(w, err)
			return
		}

		f, err := store.CreateFile(r.Context(), quiz.File{
			Name:       header.Filename,
			StoredName: storedName,
			FolderID:   folderID,
			FileType:   fileType(header.Filename),
			SizeBytes:  size,
			MimeType:   mimeType(ext),
		})
		if err != nil {
			_ = blobs.Delete(storedName)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, fileView(f))
	}
}

func DownloadFileHandler(store quiz.Store, blobs *storage.FSStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "fileID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, err := store.GetFile(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", f.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
		http.ServeFile(w, r, blobs.Path(f.StoredName))
	}
}

func DeleteFileHandler(store quiz.Store, blobs *storage.FSStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "fileID")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f, err := store.GetFile(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := store.DeleteFile(r.Context(), id); err != nil {
			writeError(w, err)
			return
		}
		_ = blobs.Delete(f.StoredName)
		w.WriteHeader(http.StatusNoContent)
	}
}

func fileView(f quiz.File) map[string]interface{} {
	return map[string]interface{}{
		"id":           f.ID,
		"name":         f.Name,
		"file_type":    f.FileType,
		"size_bytes":   f.SizeBytes,
		"size_display": formatSize(f.SizeBytes),
		"folder_id":    f.FolderID,
		"mime_type":    f.MimeType,
		"created_at":   f.CreatedAt,
		"updated_at":   f.UpdatedAt,
	}
}

func fileType(name string) string {
	ext := strings.ToUpper(filepath.Ext(name))
	if ext == "" {
		return "UNKNOWN"
	}
	return ext[1:]
}

func mimeType(ext string) string {
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

func formatSize(n int64) string {
	switch {
	case n < 1<<10:
		return fmt.Sprintf("%d B", n)
	case n < 1<<20:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	case n < 1<<30:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	default:
		return fmt.Sprintf("%.1f GB", float64(n)/(1<<30))
	}
}
