package http

import (
	"encoding/base64"
	"errors"
	"html/template"
	"net/http"

	"github.com/google/uuid"

	applog "expensetracker/internal/log"
	"expensetracker/internal/receipt"
	"expensetracker/internal/services"
)

// receiptField is the multipart field carrying the image.
const receiptField = "receipt"

const multipartOverhead = 1 << 20

type receiptExtractedView struct {
	ID      string
	Preview template.URL
	Text    string
	HasText bool
}

type receiptSavedView struct {
	Ref    string
	Amount string
	Found  bool
}

func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if b := RequirePOST(r); b != nil {
		b.Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartOverhead)
	file, _, err := r.FormFile(receiptField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "Image too large.").Write(w)
			return
		}
		BadRequestError("Choose a receipt image to upload.").Write(w)
		return
	}
	defer file.Close()

	ctx := r.Context()
	ex, err := s.svc.ScanReceipt(ctx, file)
	switch {
	case err == nil:
	case errors.Is(err, receipt.ErrUnsupportedImage):
		UnprocessableEntityError("Only JPG and PNG images are supported.").Write(w)
		return
	case errors.Is(err, receipt.ErrImageTooLarge):
		ErrorResponse(http.StatusRequestEntityTooLarge, "Image too large.").Write(w)
		return
	case errors.Is(err, services.ErrNoExtractor), errors.Is(err, receipt.ErrUnavailable):
		ErrorResponse(http.StatusServiceUnavailable, "Text recognition is not available on this server.").Write(w)
		return
	default:
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx,
			"Receipt extraction failed", err, applog.OpExtract, nil)
		internalError(w, r, "Could not extract text from the image.")
		return
	}

	id := uuid.NewString()
	s.extractions.Set(id, ex)
	applog.FromContext(ctx).InfoContext(ctx, "Receipt text extracted",
		applog.FieldOperation, applog.OpExtract,
		applog.FieldTextLength, len(ex.Text),
		"extraction_id", id)

	s.render(w, r, NewHTMXResponse(), "receipt_extracted", receiptExtractedView{
		ID:      id,
		Preview: template.URL("data:" + ex.MIME + ";base64," + base64.StdEncoding.EncodeToString(ex.Image)),
		Text:    ex.Text,
		HasText: ex.Text != "",
	})
}

func (s *Server) handleSaveReceipt(w http.ResponseWriter, r *http.Request) {
	if b := RequirePOST(r); b != nil {
		b.Write(w)
		return
	}

	id := r.PathValue("id")
	ex, ok := s.extractions.Take(id)
	if !ok {
		NotFoundError("Receipt not found or expired. Upload the image again.").Write(w)
		return
	}

	ctx := r.Context()
	res, err := s.svc.RecordReceipt(ctx, ex.Text)
	if errors.Is(err, services.ErrNoReceiptText) {
		NewHTMXResponse().BodyHTML(messageHTML("warning", "No text detected in the receipt.")).Write(w)
		return
	}
	if err != nil {
		// Keep the extraction so the user can retry.
		s.extractions.Set(id, ex)
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx,
			"Failed to save receipt", err, applog.OpAppend, nil)
		internalError(w, r, "Error saving expense.")
		return
	}

	b := NewHTMXResponse().TriggerExpenseCreated(res.Ref, services.SourceReceipt)
	s.render(w, r, b, "receipt_saved", receiptSavedView{
		Ref:    res.Ref,
		Amount: res.Inference.Amount.Decimal(),
		Found:  res.Inference.Found,
	})
}
