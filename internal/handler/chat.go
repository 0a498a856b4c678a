package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"urban-threads-api/internal/apperr"
	"urban-threads-api/internal/config"
	"urban-threads-api/internal/dto"
	"urban-threads-api/internal/middleware"
	"urban-threads-api/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Attachment whitelist: images, PDFs, documents and videos.
var allowedAttachmentExts = map[string]bool{
	".jpeg": true, ".jpg": true, ".png": true, ".gif": true,
	".pdf": true, ".doc": true, ".docx": true,
	".mp4": true, ".mov": true, ".avi": true,
}

var allowedMimePrefixes = []string{
	"image/", "video/", "application/pdf", "application/msword",
	"application/vnd.openxmlformats-officedocument",
}

type ChatHandler struct {
	chatService service.ChatService
	uploads     config.Uploads
}

func NewChatHandler(chatService service.ChatService, uploads config.Uploads) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		uploads:     uploads,
	}
}

func optionalUserID(c echo.Context) *uint {
	if id := middleware.UserID(c); id != 0 {
		return &id
	}
	return nil
}

func (h *ChatHandler) StartConversation(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.StartConversationRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	conversation, err := h.chatService.Start(ctx, service.StartConversationInput{
		CustomerID: optionalUserID(c),
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
	})
	if err != nil {
		return err
	}

	return created(c, conversation)
}

func (h *ChatHandler) Waiting(c echo.Context) error {
	ctx := c.Request().Context()

	conversations, err := h.chatService.Waiting(ctx)
	if err != nil {
		return err
	}

	return ok(c, conversations)
}

func (h *ChatHandler) Mine(c echo.Context) error {
	ctx := c.Request().Context()

	conversations, err := h.chatService.AgentConversations(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	return ok(c, conversations)
}

func (h *ChatHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	conversationID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	conversation, err := h.chatService.Get(ctx, conversationID)
	if err != nil {
		return err
	}

	return ok(c, conversation)
}

func (h *ChatHandler) Messages(c echo.Context) error {
	ctx := c.Request().Context()

	conversationID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	messages, err := h.chatService.Messages(ctx, conversationID)
	if err != nil {
		return err
	}

	return ok(c, messages)
}

func (h *ChatHandler) Claim(c echo.Context) error {
	ctx := c.Request().Context()

	conversationID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	conversation, err := h.chatService.Claim(ctx, conversationID, middleware.UserID(c))
	if err != nil {
		return err
	}

	return ok(c, conversation)
}

func (h *ChatHandler) Close(c echo.Context) error {
	ctx := c.Request().Context()

	conversationID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	conversation, err := h.chatService.Close(ctx, conversationID)
	if err != nil {
		return err
	}

	return ok(c, conversation)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	message, err := h.chatService.Send(ctx, service.SendMessageInput{
		ConversationID: req.ConversationID,
		SenderID:       optionalUserID(c),
		SenderType:     req.SenderType,
		Message:        req.Message,
	})
	if err != nil {
		return err
	}

	return ok(c, message)
}

// SendMessageWithAttachments handles the multipart variant: files are
// size-limited, type-filtered, written to the upload directory under a
// unique name, then persisted as attachment rows with the message.
func (h *ChatHandler) SendMessageWithAttachments(c echo.Context) error {
	ctx := c.Request().Context()

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}

	conversationID, err := parseFormUint(c.FormValue("conversation_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation_id")
	}

	uploads := make([]dto.AttachmentUpload, 0)
	for _, file := range form.File["attachments"] {
		upload, err := h.saveAttachment(file)
		if err != nil {
			return err
		}
		uploads = append(uploads, *upload)
	}

	message, err := h.chatService.Send(ctx, service.SendMessageInput{
		ConversationID: conversationID,
		SenderID:       optionalUserID(c),
		SenderType:     c.FormValue("sender_type"),
		Message:        c.FormValue("message"),
		Attachments:    uploads,
	})
	if err != nil {
		return err
	}

	return ok(c, message)
}

func (h *ChatHandler) saveAttachment(file *multipart.FileHeader) (*dto.AttachmentUpload, error) {
	if file.Size > h.uploads.MaxFileSize {
		return nil, apperr.New(apperr.Validation, "File too large")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAttachmentExts[ext] {
		return nil, apperr.New(apperr.Validation, "Invalid file type. Only images, PDFs, documents, and videos are allowed.")
	}

	contentType := file.Header.Get("Content-Type")
	if !mimeAllowed(contentType) {
		return nil, apperr.New(apperr.Validation, "Invalid file type. Only images, PDFs, documents, and videos are allowed.")
	}

	if err := os.MkdirAll(h.uploads.Dir, 0o755); err != nil {
		return nil, err
	}

	storedName := uuid.NewString() + "-" + filepath.Base(file.Filename)
	dstPath := filepath.Join(h.uploads.Dir, storedName)

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, err
	}

	// The public URL mirrors the storage layout so the static file route
	// keeps serving whatever directory is configured.
	return &dto.AttachmentUpload{
		FileName: file.Filename,
		FileURL:  path.Join("/", filepath.ToSlash(h.uploads.Dir), storedName),
		FileType: contentType,
		FileSize: file.Size,
	}, nil
}

func mimeAllowed(contentType string) bool {
	for _, prefix := range allowedMimePrefixes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}
