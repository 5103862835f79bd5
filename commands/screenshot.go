package commands

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mobile-next/adbctl/utils"
)

// ScreenshotRequest represents the parameters for taking a screenshot
type ScreenshotRequest struct {
	DeviceRequest
	Format     string `json:"format,omitempty"`     // "png" or "jpeg"
	Quality    int    `json:"quality,omitempty"`    // 1-100, only used for JPEG
	OutputPath string `json:"outputPath,omitempty"` // file path, "-" for stdout, or empty for default naming
}

// ScreenshotResponse represents the response for a screenshot command
type ScreenshotResponse struct {
	Format   string `json:"format"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Data     string `json:"data,omitempty"`     // base64 encoded image data
	FilePath string `json:"filePath,omitempty"` // path where file was saved
}

// ScreenshotCommand captures one frame and writes it as png or jpeg.
func ScreenshotCommand(req ScreenshotRequest) *CommandResponse {
	req.Format = strings.ToLower(req.Format)
	if req.Format == "" {
		req.Format = "png"
	}
	if req.Format == "jpg" {
		req.Format = "jpeg"
	}
	if req.Format != "png" && req.Format != "jpeg" {
		return NewErrorResponse(fmt.Errorf("invalid format '%s'. Supported formats are 'png' and 'jpeg'", req.Format))
	}

	m, err := FindManager(req.DeviceRequest)
	if err != nil {
		return NewErrorResponse(err)
	}

	frame, err := m.Screencap()
	if err != nil {
		return NewErrorResponse(fmt.Errorf("error taking screenshot: %w", err))
	}

	imageBytes, err := utils.EncodeImage(frame, req.Format, req.Quality)
	if err != nil {
		return NewErrorResponse(err)
	}

	response := ScreenshotResponse{
		Format: req.Format,
		Width:  frame.Width,
		Height: frame.Height,
	}

	if req.OutputPath == "-" {
		response.Data = base64.StdEncoding.EncodeToString(imageBytes)
		return NewSuccessResponse(response)
	}

	finalPath, err := screenshotPath(req)
	if err != nil {
		return NewErrorResponse(err)
	}
	if err := os.WriteFile(finalPath, imageBytes, 0o600); err != nil {
		return NewErrorResponse(fmt.Errorf("error writing file: %w", err))
	}
	response.FilePath = finalPath
	return NewSuccessResponse(response)
}

func screenshotPath(req ScreenshotRequest) (string, error) {
	if req.OutputPath != "" {
		path, err := filepath.Abs(req.OutputPath)
		if err != nil {
			return "", fmt.Errorf("invalid output path: %w", err)
		}
		return path, nil
	}

	extension := "png"
	if req.Format == "jpeg" {
		extension = "jpg"
	}
	timestamp := time.Now().Format("20060102150405")
	safeSerial := strings.ReplaceAll(req.Serial, ":", "_")
	path, err := filepath.Abs(fmt.Sprintf("./screenshot-%s-%s.%s", safeSerial, timestamp, extension))
	if err != nil {
		return "", fmt.Errorf("error creating default path: %w", err)
	}
	return path, nil
}
