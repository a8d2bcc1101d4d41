package handlers

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
)

// HandleProcess answers a question about an uploaded document image. It takes
// a multipart form with a "file" part and a "question" field.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, r, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	// Leave room for the multipart framing and the question field.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, r, "File too large (max 10MB)", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, r, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, "Field required: file", http.StatusUnprocessableEntity)
		return
	}
	defer file.Close()

	question := r.FormValue("question")
	if question == "" {
		h.writeError(w, r, "Field required: question", http.StatusUnprocessableEntity)
		return
	}

	slog.InfoContext(r.Context(), "Received new request", "filename", header.Filename, "question", question)

	fileData, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		h.writeError(w, r, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if int64(len(fileData)) > h.maxUploadSize {
		h.writeError(w, r, "File too large (max 10MB)", http.StatusRequestEntityTooLarge)
		return
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(fileData))
	if err != nil {
		slog.WarnContext(r.Context(), "Invalid image file uploaded", "filename", header.Filename, "err", err)
		h.writeError(w, r, "Invalid image file provided.", http.StatusBadRequest)
		return
	}
	slog.DebugContext(r.Context(), "Image opened successfully", "filename", header.Filename, "format", format, "width", cfg.Width, "height", cfg.Height)

	answer, err := h.answerer.Answer(r.Context(), fileData, "image/"+format, question)
	if err != nil {
		h.writeError(w, r, "Inference failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// HandleRoot is the health endpoint.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.writeError(w, r, "Not Found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeError(w, r, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	slog.InfoContext(r.Context(), "Health check endpoint was hit")
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "DocVQA API is running"})
}
