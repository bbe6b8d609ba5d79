package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/agegate/webapp/internal/classifier"
)

const maxUploadBytes = 10 << 20

// InferenceForm renders the upload page. Unconfirmed users are turned away
// with a notice; the session gate already rejected anonymous requests.
func (h *Handler) InferenceForm(w http.ResponseWriter, r *http.Request) {
	if !h.requireConfirmed(w, r) {
		return
	}
	h.render(w, r, http.StatusOK, "inference", "Perform Inference", nil)
}

// Infer accepts one uploaded image, stores it, runs the classifier, and
// reports the predicted label as a flash notice.
func (h *Handler) Infer(w http.ResponseWriter, r *http.Request) {
	if !h.requireConfirmed(w, r) {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		setFlash(w, "Could not read the uploaded file", flashError)
		redirect(w, r, "/inference")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		setFlash(w, "Please choose a file to upload", flashError)
		redirect(w, r, "/inference")
		return
	}
	defer file.Close()

	filename := secureFilename(header.Filename)
	if filename == "" {
		setFlash(w, "Invalid file name", flashError)
		redirect(w, r, "/inference")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		setFlash(w, "Could not read the uploaded file", flashError)
		redirect(w, r, "/inference")
		return
	}

	ctx := r.Context()
	contentType := header.Header.Get("Content-Type")
	if err := h.uploads.Put(ctx, filename, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		h.log.Error(ctx, "store upload failed", "key", filename, "error", err)
		setFlash(w, "Could not store the uploaded file", flashError)
		redirect(w, r, "/inference")
		return
	}

	label, err := h.model.Classify(ctx, bytes.NewReader(data))

	if !h.retainUploads {
		if delErr := h.uploads.Delete(ctx, filename); delErr != nil {
			h.log.Warn(ctx, "delete upload failed", "key", filename, "error", delErr)
		}
	}

	if err != nil {
		h.log.Error(ctx, "classify upload failed", "key", filename, "error", err)
		setFlash(w, "Could not classify the uploaded picture", flashError)
		redirect(w, r, "/inference")
		return
	}

	if label == classifier.LabelAdult {
		setFlash(w, fmt.Sprintf("The uploaded picture is of an %s", label), flashSuccess)
	} else {
		setFlash(w, fmt.Sprintf("The uploaded picture is of a %s", label), flashSuccess)
	}
	redirect(w, r, "/inference")
}

// requireConfirmed enforces the confirmed-email gate for the inference
// routes. Returns false after writing the redirect.
func (h *Handler) requireConfirmed(w http.ResponseWriter, r *http.Request) bool {
	user := userFromContext(r.Context())
	if user == nil {
		redirect(w, r, "/login")
		return false
	}
	if !user.Confirmed {
		setFlash(w, "Please confirm your email address to be able to use the Inference service", flashError)
		redirect(w, r, "/")
		return false
	}
	return true
}
