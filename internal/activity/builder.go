// Package activity turns raw GitHub events into typed activity records.
package activity

import (
	"strconv"
	"strings"

	"github.com/alimgiray/botscope/internal/models"
)

// Activity types produced by the mapping
const (
	PushingCommits         = "Pushing commits"
	CreatingRepository     = "Creating repository"
	CreatingBranch         = "Creating branch"
	CreatingTag            = "Creating tag"
	DeletingBranch         = "Deleting branch"
	DeletingTag            = "Deleting tag"
	OpeningIssue           = "Opening issue"
	ClosingIssue           = "Closing issue"
	ReopeningIssue         = "Reopening issue"
	UpdatingIssue          = "Updating issue"
	CommentingIssue        = "Commenting issue"
	CommentingPullRequest  = "Commenting pull request"
	OpeningPullRequest     = "Opening pull request"
	ClosingPullRequest     = "Closing pull request"
	MergingPullRequest     = "Merging pull request"
	ReopeningPullRequest   = "Reopening pull request"
	UpdatingPullRequest    = "Updating pull request"
	ReviewingCode          = "Reviewing code"
	CommentingCode         = "Commenting pull request changes"
	CommentingCommits      = "Commenting commits"
	ForkingRepository      = "Forking repository"
	StarringRepository     = "Starring repository"
	PublishingRelease      = "Publishing release"
	EditingWikiPage        = "Editing wiki page"
	ManagingAccess         = "Managing access"
	MakingRepositoryPublic = "Making repository public"
	SponsoringContributor  = "Sponsoring"
	DiscussingRepository   = "Discussing"
)

// Classify maps a raw event onto an activity type. Events without a mapping
// report false and are ignored by the builder.
func Classify(e models.RawEvent) (string, bool) {
	switch e.Type {
	case "PushEvent":
		return PushingCommits, true
	case "CreateEvent":
		switch e.RefType {
		case "repository":
			return CreatingRepository, true
		case "tag":
			return CreatingTag, true
		default:
			return CreatingBranch, true
		}
	case "DeleteEvent":
		if e.RefType == "tag" {
			return DeletingTag, true
		}
		return DeletingBranch, true
	case "IssuesEvent":
		switch e.Action {
		case "opened":
			return OpeningIssue, true
		case "closed":
			return ClosingIssue, true
		case "reopened":
			return ReopeningIssue, true
		default:
			return UpdatingIssue, true
		}
	case "IssueCommentEvent":
		if e.OnPullRequest {
			return CommentingPullRequest, true
		}
		return CommentingIssue, true
	case "PullRequestEvent":
		switch e.Action {
		case "opened":
			return OpeningPullRequest, true
		case "closed":
			if e.Merged {
				return MergingPullRequest, true
			}
			return ClosingPullRequest, true
		case "reopened":
			return ReopeningPullRequest, true
		default:
			return UpdatingPullRequest, true
		}
	case "PullRequestReviewEvent", "PullRequestReviewThreadEvent":
		return ReviewingCode, true
	case "PullRequestReviewCommentEvent":
		return CommentingCode, true
	case "CommitCommentEvent":
		return CommentingCommits, true
	case "ForkEvent":
		return ForkingRepository, true
	case "WatchEvent":
		return StarringRepository, true
	case "ReleaseEvent":
		return PublishingRelease, true
	case "GollumEvent":
		return EditingWikiPage, true
	case "MemberEvent":
		return ManagingAccess, true
	case "PublicEvent":
		return MakingRepositoryPublic, true
	case "SponsorshipEvent":
		return SponsoringContributor, true
	case "DiscussionEvent", "DiscussionCommentEvent":
		return DiscussingRepository, true
	}
	return "", false
}

// Builder appends fetched event batches to a contributor's activity sequence
type Builder struct {
	login string
}

// NewBuilder creates a builder for login
func NewBuilder(login string) *Builder {
	return &Builder{login: login}
}

// Append converts raw events and merges them into seq. Events performed by
// another actor or without a known mapping are skipped. It returns the number
// of activities added.
func (b *Builder) Append(seq *models.ActivitySequence, raw []models.RawEvent) int {
	activities := make([]models.ActivityEvent, 0, len(raw))
	for _, e := range raw {
		if e.ActorLogin != "" && !strings.EqualFold(e.ActorLogin, b.login) {
			continue
		}
		activityType, ok := Classify(e)
		if !ok {
			continue
		}
		activities = append(activities, models.NewActivityEvent(
			e.CreatedAt,
			activityType,
			strconv.FormatInt(e.RepoID, 10),
			e.RepoName,
		))
	}
	seq.Append(activities...)
	return len(activities)
}
