// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package daemon

import (
	"errors"
	"net/http"
	"time"

	"github.com/AleutianAI/shammah/internal/apierr"
	"github.com/AleutianAI/shammah/internal/inference"
	"github.com/AleutianAI/shammah/internal/messages"
	"github.com/AleutianAI/shammah/internal/metrics"
	"github.com/AleutianAI/shammah/internal/providers"
	"github.com/AleutianAI/shammah/internal/toolloop"
	"github.com/AleutianAI/shammah/internal/training"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	status := "ready"
	if !s.GeneratorState.Ready() {
		status = "starting"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":          status,
		"generator_phase": string(s.GeneratorState.Phase()),
		"active_sessions": s.Sessions.ApproxLen(),
	})
}

// handleStatus backs the `daemon-status` CLI command with the fields
// original_source/src/cli/status_bar.rs reports: uptime, active
// sessions, generator phase, and the router's current forward rate.
func (s *Server) handleStatus(c *gin.Context) {
	snap := s.Router.Snapshot()
	forwardRate := 1.0
	if snap.TotalQueries > 0 {
		forwardRate = 1.0 - float64(snap.TotalLocalAttempts)/float64(snap.TotalQueries)
	}
	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds":       int64(time.Since(s.startedAt).Seconds()),
		"generator_phase":      string(s.GeneratorState.Phase()),
		"active_sessions":      s.Sessions.ApproxLen(),
		"total_queries":        snap.TotalQueries,
		"total_local_attempts": snap.TotalLocalAttempts,
		"forward_rate":         forwardRate,
	})
}

func (s *Server) handleModels(c *gin.Context) {
	models := []gin.H{{
		"id":     s.LocalModelID,
		"object": "model",
		"owned_by": "shammah-local",
	}}
	for _, t := range s.Config.Teachers {
		models = append(models, gin.H{"id": t.Model, "object": "model", "owned_by": t.Provider})
	}
	c.JSON(http.StatusOK, gin.H{"object": "list", "data": models})
}

// handleChatCompletions implements spec.md §4.4's request-handling
// algorithm: validate, convert, route, generate-or-forward, record the
// training signal, and shape the OpenAI-style response.
func (s *Server) handleChatCompletions(c *gin.Context) {
	var req ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		status, body := apierr.BadRequest(err.Error())
		c.JSON(status, body)
		return
	}
	if req.Stream {
		status, body := apierr.BadRequest("streaming responses are not supported on this endpoint")
		c.JSON(status, body)
		return
	}

	sess := s.sessionFor(req.SessionID)
	incoming := toInternalMessages(req.Messages)
	sess.Conversation = append(sess.Conversation, incoming...)

	lastUser := lastUserText(incoming)
	decision := s.Router.Decide(lastUser)

	var (
		final     messages.Message
		toolTurns []messages.Message
		usedLocal bool
	)

	tryLocal := decision.IsLocal() || req.LocalOnly
	if tryLocal && !s.GeneratorState.Ready() {
		if req.LocalOnly {
			status, body := apierr.ModelNotReady()
			c.JSON(status, body)
			return
		}
		tryLocal = false
	}

	start := time.Now()
	if tryLocal {
		res, err := s.runLocal(c, sess, req)
		s.Events.LocalGeneration(sess.ID, time.Since(start).Milliseconds(), len(res.ToolTurns), err)
		if err == nil {
			final, toolTurns, usedLocal = res.Final, res.ToolTurns, true
			metrics.RecordLocalGeneration(time.Since(start))
			s.Router.LearnLocalAttempt(decision.Category, true)
		} else if errors.Is(err, inference.ErrNotReady) || errors.Is(err, toolloop.ErrToolLoopExhausted) {
			s.Router.LearnLocalAttempt(decision.Category, false)
			if req.LocalOnly {
				status, body := apierr.Classify(err)
				c.JSON(status, body)
				return
			}
		} else {
			status, body := apierr.Classify(err)
			c.JSON(status, body)
			return
		}
	}

	metrics.RecordRouterDecision(outcomeLabel(usedLocal), decision.Confidence)
	s.Events.RouteDecision(sess.ID, outcomeLabel(usedLocal), string(decision.Reason), decision.Confidence)

	if !usedLocal {
		if !tryLocal {
			s.Router.LearnForwarded(decision.Category)
		}
		resp, err := s.forwardToTeacher(c, sess, req)
		if err != nil {
			status, body := apierr.TeacherFailure(err)
			c.JSON(status, body)
			return
		}
		final = messages.Message{Role: messages.RoleAssistant, Content: []messages.ContentBlock{messages.Text(resp.Content)}}
	}

	sess.Conversation = append(sess.Conversation, toolTurns...)
	sess.Conversation = append(sess.Conversation, final)
	s.Sessions.Update(sess)

	s.submitTrainingExample(lastUser, final, usedLocal)

	c.JSON(http.StatusOK, buildResponse(sess, req.Model, final))
}

type localResult struct {
	Final     messages.Message
	ToolTurns []messages.Message
}

func (s *Server) runLocal(c *gin.Context, sess *Session, req ChatCompletionRequest) (localResult, error) {
	tools := toToolDefinitions(req.Tools)
	validator, err := toolloop.NewSchemaValidator(tools)
	if err != nil {
		s.Logger.Warn("tool schema validator unavailable, dispatching without parameter validation", "error", err)
		validator = nil
	}

	loop := &toolloop.Loop{
		Engine:    s.Engine,
		Executor:  s.ToolExecutor,
		Tools:     tools,
		Validator: validator,
	}
	res, err := loop.Run(c.Request.Context(), "", sess.Conversation)
	if err != nil {
		return localResult{}, err
	}
	return localResult{Final: res.Final, ToolTurns: res.ToolTurns}, nil
}

func (s *Server) forwardToTeacher(c *gin.Context, sess *Session, req ChatCompletionRequest) (*providers.Response, error) {
	start := time.Now()
	resp, err := s.Teachers.SendMessage(c.Request.Context(), providers.Request{
		Model:    req.Model,
		Messages: sess.Conversation,
		Tools:    toProviderTools(req.Tools),
	})
	metrics.RecordProviderCall(s.Teachers.Name(), time.Since(start), err)
	s.Events.ProviderCall(sess.ID, s.Teachers.Name(), time.Since(start).Milliseconds(), err)
	return resp, err
}

// submitTrainingExample feeds every served exchange into the training
// coordinator at the auto-forward weight (spec.md §4.6); feedback-driven
// reweighting happens later through internal/feedback, not here.
func (s *Server) submitTrainingExample(query string, final messages.Message, local bool) {
	if s.Training == nil {
		return
	}
	weight := training.WeightAutoForward
	s.Training.Collect(training.NewExample(query, final.Text(), weight, ""))
}

func lastUserText(msgs []messages.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == messages.RoleUser {
			if t := msgs[i].Text(); t != "" {
				return t
			}
		}
	}
	return ""
}

func outcomeLabel(local bool) string {
	if local {
		return "local"
	}
	return "forward"
}

func buildResponse(sess *Session, model string, final messages.Message) ChatCompletionResponse {
	openaiMsgs := toOpenAIMessages(final)
	choice := ChatCompletionChoice{Index: 0, FinishReason: finishReason(final)}
	if len(openaiMsgs) > 0 {
		choice.Message = openaiMsgs[len(openaiMsgs)-1]
	}
	return ChatCompletionResponse{
		ID:        "chatcmpl-" + sess.ID,
		Object:    "chat.completion",
		Created:   sess.CreatedAt.Unix(),
		Model:     model,
		SessionID: sess.ID,
		Choices:   []ChatCompletionChoice{choice},
	}
}

func (s *Server) sessionFor(id string) *Session {
	if id != "" {
		if sess := s.Sessions.Get(id); sess != nil {
			return sess
		}
	}
	return s.Sessions.Create()
}
