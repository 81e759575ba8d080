package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/wsdrive/internal/common"
	"github.com/dmitrijs2005/wsdrive/internal/server/services"
)

type createFolderRequest struct {
	Name string `json:"name"`
}

type deleteFilesRequest struct {
	Paths []string `json:"paths"`
}

type moveFileRequest struct {
	Path         string `json:"path"`
	TargetFolder string `json:"targetFolder"`
}

type trashRequest struct {
	Path string `json:"path"`
}

func (s *HTTPServer) listFolders(c *gin.Context) {
	folders, err := s.files.ListFolders(c.Request.Context(), c.Param("ws"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": folders})
}

func (s *HTTPServer) createFolder(c *gin.Context) {
	var req createFolderRequest
	if !s.bind(c, &req) {
		return
	}
	name, err := s.files.CreateFolder(c.Request.Context(), c.Param("ws"), req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"name": name})
}

func (s *HTTPServer) deleteFolder(c *gin.Context) {
	res, err := s.files.DeleteFolder(c.Request.Context(), c.Param("ws"), c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) listFiles(c *gin.Context) {
	opts := services.ListFilesOptions{
		Folder: c.Query("folder"),
		Query:  c.Query("q"),
	}
	if v := c.Query("recursive"); v != "" {
		r, err := strconv.ParseBool(v)
		if err != nil {
			s.fail(c, fmt.Errorf("%w: recursive must be a boolean", common.ErrorValidation))
			return
		}
		opts.Recursive = r
	}

	files, err := s.files.ListFiles(c.Request.Context(), c.Param("ws"), opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (s *HTTPServer) uploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		s.fail(c, fmt.Errorf("%w: multipart field \"file\" is required", common.ErrorValidation))
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	item, err := s.files.Upload(c.Request.Context(), c.Param("ws"), services.UploadRequest{
		Folder:      c.PostForm("folder"),
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *HTTPServer) deleteFiles(c *gin.Context) {
	var req deleteFilesRequest
	if !s.bind(c, &req) {
		return
	}
	res, err := s.files.DeleteFiles(c.Request.Context(), c.Param("ws"), req.Paths)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *HTTPServer) moveFile(c *gin.Context) {
	var req moveFileRequest
	if !s.bind(c, &req) {
		return
	}
	to, err := s.files.MoveFile(c.Request.Context(), c.Param("ws"), req.Path, req.TargetFolder)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": to})
}

func (s *HTTPServer) signedURL(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		s.fail(c, fmt.Errorf("%w: path is required", common.ErrorValidation))
		return
	}
	u, err := s.files.SignedURL(c.Request.Context(), c.Param("ws"), path)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u})
}

func (s *HTTPServer) listTrash(c *gin.Context) {
	entries, err := s.trash.ListTrash(c.Request.Context(), c.Param("ws"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *HTTPServer) moveToTrash(c *gin.Context) {
	var req trashRequest
	if !s.bind(c, &req) {
		return
	}
	e, err := s.trash.MoveToTrash(c.Request.Context(), c.Param("ws"), req.Path)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *HTTPServer) restore(c *gin.Context) {
	e, err := s.trash.Restore(c.Request.Context(), c.Param("ws"), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *HTTPServer) purge(c *gin.Context) {
	if err := s.trash.PermanentlyDelete(c.Request.Context(), c.Param("ws"), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *HTTPServer) sweep(c *gin.Context) {
	summary, err := s.trash.Sweep(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// bind decodes a JSON body, answering 400 on malformed input.
func (s *HTTPServer) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", common.ErrorValidation, err))
		return false
	}
	return true
}
