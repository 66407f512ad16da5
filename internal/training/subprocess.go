// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package training

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LoRAConfig carries the fine-tuning hyperparameters passed to the
// training subprocess. Defaults mirror the LoRA conventions used
// elsewhere in the fine-tuning literature this daemon's teacher
// codebase also reaches for: rank 16, alpha 32, dropout 0.05, Adam LR
// 2e-4, batch size 4.
type LoRAConfig struct {
	Rank         int
	Alpha        float64
	Dropout      float64
	LearningRate float64
	BatchSize    int
	Epochs       int
}

// DefaultLoRAConfig returns the standard hyperparameters.
func DefaultLoRAConfig() LoRAConfig {
	return LoRAConfig{
		Rank:         16,
		Alpha:        32,
		Dropout:      0.05,
		LearningRate: 2e-4,
		BatchSize:    4,
		Epochs:       3,
	}
}

// SubprocessSpawner launches the Python LoRA trainer described in
// spec.md §4.6: given a flushed queue file, it trains an adapter and
// exits; this process never waits on it synchronously.
type SubprocessSpawner struct {
	// PythonPath is the interpreter to invoke; defaults to "python3".
	PythonPath string
	// ScriptPath is the training script's location.
	ScriptPath string
	// BaseModelID identifies the base model the LoRA adapter targets.
	BaseModelID string
	Config      LoRAConfig
	Logger      *slog.Logger
}

// Spawn starts the subprocess against queuePath, writing the adapter
// to outputAdapterPath. Stdout/stderr are redirected to a sibling
// ".training.log" file next to the queue, and the process is detached
// so it survives the parent's lifetime. Spawn returns as soon as the
// process has started; a background goroutine watches for exit and
// performs the archive-on-success / leave-on-failure step from
// spec.md §4.6 once it completes.
func (s *SubprocessSpawner) Spawn(queuePath, outputAdapterPath string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	python := s.PythonPath
	if python == "" {
		python = "python3"
	}

	logPath := queuePath + ".training.log"
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("training: open log %s: %w", logPath, err)
	}

	cmd := exec.Command(python, s.ScriptPath,
		"--queue", queuePath,
		"--output", outputAdapterPath,
		"--base-model", s.BaseModelID,
		"--rank", strconv.Itoa(s.Config.Rank),
		"--alpha", strconv.FormatFloat(s.Config.Alpha, 'f', -1, 64),
		"--dropout", strconv.FormatFloat(s.Config.Dropout, 'f', -1, 64),
		"--learning-rate", strconv.FormatFloat(s.Config.LearningRate, 'f', -1, 64),
		"--batch-size", strconv.Itoa(s.Config.BatchSize),
		"--epochs", strconv.Itoa(s.Config.Epochs),
	)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	detach(cmd)

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return fmt.Errorf("training: start subprocess: %w", err)
	}

	go s.awaitCompletion(cmd, logFile, queuePath, logPath, logger)
	return nil
}

func (s *SubprocessSpawner) awaitCompletion(cmd *exec.Cmd, logFile *os.File, queuePath, logPath string, logger *slog.Logger) {
	defer logFile.Close()
	err := cmd.Wait()
	if err != nil {
		logger.Error("training subprocess failed; queue left in place", "log", logPath, "error", err)
		return
	}

	archivePath := archivePathFor(queuePath, time.Now())
	if err := os.Rename(queuePath, archivePath); err != nil {
		logger.Error("training subprocess succeeded but archiving the queue failed", "queue", queuePath, "error", err)
		return
	}
	logger.Info("training subprocess completed; queue archived", "archive", archivePath)
}

// archivePathFor derives the timestamped archive name spec.md's
// glossary shows: "training_queue_archive_<UTC>.jsonl".
func archivePathFor(queuePath string, at time.Time) string {
	dir := filepath.Dir(queuePath)
	ext := filepath.Ext(queuePath)
	base := strings.TrimSuffix(filepath.Base(queuePath), ext)
	stamp := at.UTC().Format("20060102T150405Z")
	return filepath.Join(dir, base+"_archive_"+stamp+ext)
}
