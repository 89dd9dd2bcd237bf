package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/houzhh15/meethub/cmd/server/internal/insight"
	"github.com/houzhh15/meethub/cmd/server/internal/store"
	"github.com/houzhh15/meethub/cmd/server/internal/transcribe"
)

const (
	// MaxFileSize 上传音频文件大小上限
	MaxFileSize = 500 * 1024 * 1024 // 500MB
)

// HandleAudioUpload 处理整段录音上传并同步转写
// POST /api/v1/meetings/:meeting_id/audio/upload
//
// 上传路径独立于流式状态机：不经过分片缓冲，也不受单飞限制。
// 转写结果写入 MeetingStore，并触发一次后台洞察任务。
func HandleAudioUpload(tr transcribe.Transcriber, meetings store.MeetingStore, coord *insight.Coordinator, log *slog.Logger) gin.HandlerFunc {
	uploadLogger := log.With("component", "audio-upload")
	return func(c *gin.Context) {
		meetingID := c.Param("meeting_id")

		file, err := c.FormFile("audio")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": fmt.Sprintf("missing audio file: %v", err),
			})
			return
		}
		if file.Size > MaxFileSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"message": "audio file exceeds 500MB limit",
			})
			return
		}

		tempPath := filepath.Join(os.TempDir(), uuid.NewString()+filepath.Ext(file.Filename))
		if err := c.SaveUploadedFile(file, tempPath); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": fmt.Sprintf("failed to save upload: %v", err),
			})
			return
		}
		defer os.Remove(tempPath)

		transcript, err := tr.TranscribeFile(c.Request.Context(), tempPath)
		if err != nil {
			uploadLogger.Error("file transcription failed", "meeting_id", meetingID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": fmt.Sprintf("transcription failed: %v", err),
			})
			return
		}

		if err := meetings.AppendTranscript(meetingID, transcript); err != nil {
			uploadLogger.Error("failed to persist transcript", "meeting_id", meetingID, "error", err)
		}

		coord.EnrichDetached(meetingID, transcript)

		c.JSON(http.StatusOK, gin.H{
			"transcript": transcript,
			"message":    "Audio processed successfully",
		})
	}
}
