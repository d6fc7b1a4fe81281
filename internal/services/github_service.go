package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alimgiray/botscope/internal/classifier"
	"github.com/alimgiray/botscope/internal/models"
	"github.com/alimgiray/botscope/pkg/config"
	"github.com/alimgiray/botscope/pkg/logger"
	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const userAgent = "botscope/1.0"

// GitHubService resolves accounts and pages through public events. Every
// exported call is one query unit; retries stay inside the call.
type GitHubService struct {
	client *github.Client
	cfg    config.GitHubConfig
}

// NewGitHubService creates a client authenticated with the configured token,
// or an anonymous one when no token is set
func NewGitHubService(cfg config.GitHubConfig) (*GitHubService, error) {
	var httpClient *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	client.UserAgent = userAgent

	if cfg.APIURL != "" {
		base := cfg.APIURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", cfg.APIURL, err)
		}
		client.BaseURL = u
	}

	if cfg.PerPage <= 0 || cfg.PerPage > 100 {
		cfg.PerPage = 100
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}

	return &GitHubService{client: client, cfg: cfg}, nil
}

// Resolve returns the account metadata of login. A login GitHub does not know
// is reported with Exists=false.
func (s *GitHubService) Resolve(ctx context.Context, login string) (models.AccountMetadata, error) {
	var user *github.User
	err := s.do(ctx, "get user", func() (*github.Response, error) {
		var resp *github.Response
		var err error
		user, resp, err = s.client.Users.Get(ctx, login)
		return resp, err
	})
	if err != nil {
		if isNotFound(err) {
			return models.AccountMetadata{Login: login, Exists: false}, nil
		}
		return models.AccountMetadata{}, err
	}

	return models.AccountMetadata{
		Login:   user.GetLogin(),
		Exists:  true,
		Type:    models.ParseAccountType(user.GetType()),
		RawType: user.GetType(),
	}, nil
}

// FetchNextBatch returns one page of the public events performed by login.
// Cursor 0 is the first page.
func (s *GitHubService) FetchNextBatch(ctx context.Context, login string, cursor int) (models.EventBatch, error) {
	page := cursor
	if page < 1 {
		page = 1
	}
	opts := &github.ListOptions{Page: page, PerPage: s.cfg.PerPage}

	var events []*github.Event
	var resp *github.Response
	err := s.do(ctx, "list events", func() (*github.Response, error) {
		var err error
		events, resp, err = s.client.Activity.ListEventsPerformedByUser(ctx, login, true, opts)
		return resp, err
	})
	if err != nil {
		if isNotFound(err) {
			return models.EventBatch{NextCursor: page + 1, Exhausted: true}, nil
		}
		return models.EventBatch{}, err
	}

	batch := models.EventBatch{
		Events:     make([]models.RawEvent, 0, len(events)),
		NextCursor: page + 1,
	}
	for _, e := range events {
		batch.Events = append(batch.Events, toRawEvent(e))
	}
	if resp != nil && resp.NextPage != 0 {
		batch.NextCursor = resp.NextPage
	}
	batch.Exhausted = len(events) < s.cfg.PerPage || resp == nil || resp.NextPage == 0

	return batch, nil
}

// maxRateLimitWaits bounds how often one request waits for a primary rate limit reset
const maxRateLimitWaits = 3

// do runs call with the configured retry policy. Primary rate limits are
// waited out when allowed; other retryable failures back off exponentially.
func (s *GitHubService) do(ctx context.Context, op string, call func() (*github.Response, error)) error {
	delay := s.cfg.RetryDelay
	var lastErr error
	rateLimitWaits := 0

	for attempt := 1; attempt <= s.cfg.RetryAttempts; attempt++ {
		resp, err := call()
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if isNotFound(err) {
			return err
		}

		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			wait := time.Until(rateErr.Rate.Reset.Time)
			if !s.cfg.WaitRateLimit || wait > s.cfg.MaxRateLimitWait || rateLimitWaits >= maxRateLimitWaits {
				return fmt.Errorf("%w: %s: resets at %s", classifier.ErrRateLimited, op, rateErr.Rate.Reset.Time.Format(time.RFC3339))
			}
			logger.WithFields(logrus.Fields{"op": op, "wait": wait.String()}).Warn("GitHub rate limit reached, waiting for reset")
			if err := sleep(ctx, wait); err != nil {
				return err
			}
			// the request is repeated after the reset without using up an attempt
			rateLimitWaits++
			attempt--
			continue
		}

		var abuseErr *github.AbuseRateLimitError
		if errors.As(err, &abuseErr) {
			wait := delay
			if abuseErr.RetryAfter != nil {
				wait = *abuseErr.RetryAfter
			}
			if wait > s.cfg.MaxRateLimitWait {
				return fmt.Errorf("%w: %s: secondary rate limit", classifier.ErrRateLimited, op)
			}
			lastErr = err
			if attempt < s.cfg.RetryAttempts {
				if err := sleep(ctx, wait); err != nil {
					return err
				}
			}
			continue
		}

		if !retryable(resp, err) {
			return fmt.Errorf("%w: %s: %v", classifier.ErrTransport, op, err)
		}

		lastErr = err
		if attempt < s.cfg.RetryAttempts {
			logger.WithFields(logrus.Fields{"op": op, "attempt": attempt, "delay": delay.String()}).WithError(err).Warn("GitHub request failed, retrying")
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			delay = time.Duration(float64(delay) * s.cfg.RetryBackoff)
		}
	}

	if errors.As(lastErr, new(*github.AbuseRateLimitError)) {
		return fmt.Errorf("%w: %s: %v", classifier.ErrRateLimited, op, lastErr)
	}
	return fmt.Errorf("%w: %s failed after %d attempts: %v", classifier.ErrTransport, op, s.cfg.RetryAttempts, lastErr)
}

// retryable reports whether a failed request may succeed when repeated.
// Network errors and server-side statuses are; client errors are not.
func retryable(resp *github.Response, err error) bool {
	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return retryableStatus(errResp.Response.StatusCode)
	}
	if resp != nil && resp.Response != nil {
		return retryableStatus(resp.StatusCode)
	}
	return true
}

func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
}

func isNotFound(err error) bool {
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// toRawEvent keeps the fields needed to map an event onto an activity
func toRawEvent(e *github.Event) models.RawEvent {
	raw := models.RawEvent{
		ID:         e.GetID(),
		Type:       e.GetType(),
		ActorLogin: e.GetActor().GetLogin(),
		RepoID:     e.GetRepo().GetID(),
		RepoName:   e.GetRepo().GetName(),
		CreatedAt:  e.GetCreatedAt().Time,
	}
	if e.Type == nil || e.RawPayload == nil {
		return raw
	}

	payload, err := e.ParsePayload()
	if err != nil {
		logger.WithField("event_id", raw.ID).WithError(err).Debug("unreadable event payload")
		return raw
	}

	switch p := payload.(type) {
	case *github.CreateEvent:
		raw.RefType = p.GetRefType()
	case *github.DeleteEvent:
		raw.RefType = p.GetRefType()
	case *github.IssuesEvent:
		raw.Action = p.GetAction()
	case *github.IssueCommentEvent:
		raw.Action = p.GetAction()
		if issue := p.GetIssue(); issue != nil {
			raw.OnPullRequest = issue.IsPullRequest()
		}
	case *github.PullRequestEvent:
		raw.Action = p.GetAction()
		raw.Merged = p.GetPullRequest().GetMerged()
	case *github.PullRequestReviewEvent:
		raw.Action = p.GetAction()
	case *github.PullRequestReviewCommentEvent:
		raw.Action = p.GetAction()
	case *github.ReleaseEvent:
		raw.Action = p.GetAction()
	case *github.MemberEvent:
		raw.Action = p.GetAction()
	}
	return raw
}
