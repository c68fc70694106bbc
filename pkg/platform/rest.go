package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meower-media/replybot/pkg/meowid"
)

type APIError struct {
	Path       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("platform %s returned status: %d", e.Path, e.StatusCode)
}

// RESTClient talks to the chat platform's v0 REST API and its uploads
// server.
type RESTClient struct {
	apiURL     string
	uploadsURL string
	token      string
	httpClient *http.Client
}

func NewRESTClient(apiURL string, uploadsURL string, token string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		apiURL:     strings.TrimRight(apiURL, "/"),
		uploadsURL: strings.TrimRight(uploadsURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *RESTClient) GetMessage(ctx context.Context, channelId string, messageId string) (*Message, error) {
	path := fmt.Sprintf("/chats/%s/posts/%s", url.PathEscape(channelId), url.PathEscape(messageId))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var post V0Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return nil, fmt.Errorf("decode post: %w", err)
	}

	return post.Message(), nil
}

// PostReply uploads the reply's attachments, then posts it in reply to the
// target message.
func (c *RESTClient) PostReply(ctx context.Context, reply Reply) error {
	attachmentIds := make([]string, 0, len(reply.Attachments))
	for _, a := range reply.Attachments {
		id, err := c.upload(ctx, a)
		if err != nil {
			return fmt.Errorf("upload %s: %w", a.Filename, err)
		}
		attachmentIds = append(attachmentIds, id)
	}

	body := CreatePostReq{
		Content:        reply.Text,
		AttachmentIds:  attachmentIds,
		ReplyToPostIds: []string{reply.TargetMessageId},
		Deletable:      reply.AllowDeleteButton,
		MentionAuthor:  reply.NotifyAuthor,
		Nonce:          meowid.GenIdString(),
	}
	marshaled, err := json.Marshal(body)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/chats/%s/posts", url.PathEscape(reply.ChannelId))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(marshaled))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, path)
	if err != nil {
		return err
	}
	resp.Body.Close()

	return nil
}

func (c *RESTClient) upload(ctx context.Context, a Attachment) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", a.Filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(a.Data); err != nil {
		return "", err
	}
	if a.AltText != "" {
		if err := mw.WriteField("alt", a.AltText); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	path := "/attachments"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadsURL+path, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, path)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var uploaded uploadResp
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("decode upload: %w", err)
	}
	return uploaded.Id, nil
}

func (c *RESTClient) do(req *http.Request, path string) (*http.Response, error) {
	req.Header.Set("Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrMessageNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		resp.Body.Close()
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		resp.Body.Close()
		return nil, &APIError{Path: path, StatusCode: resp.StatusCode}
	}
	return resp, nil
}
