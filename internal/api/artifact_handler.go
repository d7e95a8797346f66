package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shaiso/Harvest/internal/artifact"
)

// DownloadExports отдаёт zip со всеми сохранёнными exports.
// GET /api/v1/artifacts/exports
func (h *Handler) DownloadExports(w http.ResponseWriter, r *http.Request) {
	if h.artifacts == nil {
		Unavailable(w, "artifact store is not configured")
		return
	}

	// архив собираем в память: ошибка должна уйти до заголовков ответа
	var buf bytes.Buffer
	if err := h.artifacts.ExportArchive(&buf); err != nil {
		if errors.Is(err, artifact.ErrNoArtifacts) {
			Error(w, http.StatusNotFound, ErrCodeNoArtifacts, "no exports to download")
			return
		}
		InternalError(w, h.logger, err)
		return
	}

	name := fmt.Sprintf("exports-%s.zip", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write archive", "error", err, "path", r.URL.Path)
	}
}
