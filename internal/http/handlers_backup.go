package http

import (
	"net/http"
	"time"

	"rentledger/internal/backup"
	"rentledger/internal/log"
)

// handleBackupDownload streams the full ledger as a backup document.
func (s *Server) handleBackupDownload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.Snapshot(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	doc := backup.NewDocument(snap, time.Now())

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="rentledger-backup.json"`)
	if err := doc.Encode(w); err != nil {
		s.logger.LogError(r.Context(), "Backup encode failed", err, log.ComponentBackup, log.OpExport, log.NewFields())
	}
}

// handleRestore validates an uploaded backup document before replacing the
// ledger with its content. An invalid document leaves the store untouched.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)

	doc, err := backup.Decode(body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := doc.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.ledger.Restore(r.Context(), doc.Snapshot()); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, doc.Metadata)
}
