package server

import (
	"embed"
	"errors"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"time"
)

//go:embed static/*
var staticFiles embed.FS

// served as the modification time of every embedded file
var startTime = time.Now()

func StaticFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("Failed to create sub filesystem: " + err.Error())
	}

	return subFS
}

// StreamFile writes an embedded static file to the response
func StreamFile(w http.ResponseWriter, r *http.Request, filePath string) error {
	cleaned := path.Clean(filePath)
	if !fs.ValidPath(cleaned) {
		return errors.New("invalid static path")
	}

	f, err := StaticFilesFS().Open(cleaned)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fs.ErrNotExist
	}

	if ctype := mime.TypeByExtension(path.Ext(cleaned)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}

	if rs, ok := f.(io.ReadSeeker); ok {
		http.ServeContent(w, r, info.Name(), startTime, rs)
		return nil
	}
	_, err = io.Copy(w, f)
	return err
}
