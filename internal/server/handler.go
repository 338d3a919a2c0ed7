package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/monadsocial/agora/internal/service"
)

// maxPollDurationHours is ten years.
const maxPollDurationHours = 10 * 365 * 24

func (s server) listPosts(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts Posts ListPosts
	//
	// Returns all posts, newest first, with likes, comments and author's profile.
	//
	// ---
	// produces:
	// - application/json
	// responses:
	//   '200':
	//     description: Posts
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Post"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	posts, err := s.s.GetPosts(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, "list posts")
		return
	}

	out := make([]Post, len(posts))
	for i, p := range posts {
		out[i] = toAPIPost(p)
	}

	writeOK(w, http.StatusOK, out)
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts Posts CreatePost
	//
	// Creates a post. Post id is assigned by the caller.
	//
	// ---
	// consumes:
	// - application/json
	// produces:
	// - application/json
	// responses:
	//   '201':
	//     description: Created post
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req CreatePostRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p := service.CreatePostParams{
		ID:          req.ID,
		Content:     req.Content,
		Photo:       req.Photo,
		Author:      req.Author,
		TxHash:      req.TxHash,
		BlockNumber: req.BlockNumber,
	}
	if req.CreatedAt != 0 {
		p.Timestamp = time.Unix(int64(req.CreatedAt), 0).UTC()
	}

	post, err := s.s.CreatePost(r.Context(), &p)
	if err != nil {
		writeServiceError(r.Context(), w, err, "create post")
		return
	}

	writeOK(w, http.StatusCreated, toAPIPost(post))
}

func (s server) getPost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /posts/{id} Posts GetPost
	//
	// Returns a post.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: Post
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '404':
	//     description: post not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	post, err := s.s.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), w, err, "get post")
		return
	}

	writeOK(w, http.StatusOK, toAPIPost(post))
}

func (s server) updatePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /posts/{id} Posts UpdatePost
	//
	// Edits content of own post.
	//
	// ---
	// responses:
	//   '200':
	//     description: Post
	//     schema:
	//       "$ref": "#/definitions/Post"
	//   '403':
	//     description: not an author of the post
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req UpdatePostRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")

	post, err := s.s.UpdatePost(r.Context(), id, req.User, req.Content)
	if err != nil {
		writeServiceError(r.Context(), w, err, "update post")
		return
	}

	writeOK(w, http.StatusOK, toAPIPost(post))
}

func (s server) deletePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /posts/{id} Posts DeletePost
	//
	// Deletes own post with its likes and comments.
	//
	// ---
	// responses:
	//   '204':
	//     description: deleted
	//   '403':
	//     description: not an author of the post
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req UserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.s.DeletePost(r.Context(), chi.URLParam(r, "id"), req.User); err != nil {
		writeServiceError(r.Context(), w, err, "delete post")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) toggleLike(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{id}/like Posts ToggleLike
	//
	// Likes the post or removes the like when it's already there.
	//
	// ---
	// responses:
	//   '200':
	//     description: Likes count and the caller's like state
	//     schema:
	//       "$ref": "#/definitions/LikeResponse"

	var req UserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	likes, liked, err := s.s.ToggleLike(r.Context(), chi.URLParam(r, "id"), req.User)
	if err != nil {
		writeServiceError(r.Context(), w, err, "toggle like")
		return
	}

	writeOK(w, http.StatusOK, LikeResponse{Likes: likes, Liked: liked})
}

func (s server) addComment(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /posts/{id}/comments Posts AddComment
	//
	// Adds a comment to the post.
	//
	// ---
	// responses:
	//   '201':
	//     description: Comment
	//     schema:
	//       "$ref": "#/definitions/Comment"

	var req AddCommentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := s.s.AddComment(r.Context(), &service.AddCommentParams{
		ID:     req.ID,
		PostID: chi.URLParam(r, "id"),
		Author: req.User,
		Text:   req.Text,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err, "add comment")
		return
	}

	writeOK(w, http.StatusCreated, toAPIComment(c))
}

func (s server) listProfiles(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles Profiles ListProfiles
	//
	// Returns all profiles ordered by address.
	//
	// ---
	// responses:
	//   '200':
	//     description: Profiles
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Profile"

	pp, err := s.s.ListProfiles(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, "list profiles")
		return
	}

	out := make([]Profile, len(pp))
	for i, p := range pp {
		out[i] = toAPIProfile(p)
	}

	writeOK(w, http.StatusOK, out)
}

func (s server) getProfile(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /profiles/{address} Profiles GetProfile
	//
	// Returns a profile.
	//
	// ---
	// responses:
	//   '200':
	//     description: Profile
	//     schema:
	//       "$ref": "#/definitions/Profile"
	//   '404':
	//     description: profile not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	p, err := s.s.GetProfile(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeServiceError(r.Context(), w, err, "get profile")
		return
	}

	writeOK(w, http.StatusOK, toAPIProfile(p))
}

func (s server) upsertProfile(w http.ResponseWriter, r *http.Request) {
	// swagger:operation PUT /profiles/{address} Profiles UpsertProfile
	//
	// Creates or replaces a profile.
	//
	// ---
	// responses:
	//   '200':
	//     description: Profile
	//     schema:
	//       "$ref": "#/definitions/Profile"

	var req UpsertProfileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.s.UpsertProfile(r.Context(), chi.URLParam(r, "address"), &service.ProfileParams{
		DisplayName:  req.DisplayName,
		ProfilePhoto: req.ProfilePhoto,
		Bio:          req.Bio,
		TxHash:       req.TxHash,
		BlockNumber:  req.BlockNumber,
		FeesPaid:     req.FeesPaid,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err, "save profile")
		return
	}

	writeOK(w, http.StatusOK, toAPIProfile(p))
}

func (s server) listPolls(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /polls Polls ListPolls
	//
	// Returns all polls, newest first.
	//
	// ---
	// responses:
	//   '200':
	//     description: Polls
	//     schema:
	//       type: array
	//       items:
	//         "$ref": "#/definitions/Poll"

	polls, err := s.s.GetPolls(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, "list polls")
		return
	}

	out := make([]Poll, len(polls))
	for i, p := range polls {
		out[i] = toAPIPoll(p)
	}

	writeOK(w, http.StatusOK, out)
}

func (s server) createPoll(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /polls Polls CreatePoll
	//
	// Creates a poll. The poll is written to storage before the response.
	//
	// ---
	// responses:
	//   '201':
	//     description: Poll
	//     schema:
	//       "$ref": "#/definitions/Poll"
	//   '400':
	//     description: bad request
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req CreatePollRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.Duration < 0:
		writeError(w, http.StatusBadRequest, "duration must be positive")
		return
	case req.Duration > maxPollDurationHours:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("duration must not exceed %d hours", maxPollDurationHours))
		return
	}

	p, err := s.s.CreatePoll(r.Context(), &service.CreatePollParams{
		ID:       req.ID,
		Question: req.Question,
		Options:  req.Options,
		Duration: time.Duration(req.Duration) * time.Hour,
		Author:   req.Author,
		TxHash:   req.TxHash,
	})
	if err != nil {
		writeServiceError(r.Context(), w, err, "create poll")
		return
	}

	writeOK(w, http.StatusCreated, toAPIPoll(p))
}

func (s server) getPoll(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /polls/{id} Polls GetPoll
	//
	// Returns a poll.
	//
	// ---
	// responses:
	//   '200':
	//     description: Poll
	//     schema:
	//       "$ref": "#/definitions/Poll"
	//   '404':
	//     description: poll not found
	//     schema:
	//       "$ref": "#/definitions/Error"

	p, err := s.s.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), w, err, "get poll")
		return
	}

	writeOK(w, http.StatusOK, toAPIPoll(p))
}

func (s server) vote(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /polls/{id}/vote Polls Vote
	//
	// Votes for the option. A repeated vote moves the caller's vote to the new option.
	//
	// ---
	// responses:
	//   '200':
	//     description: Poll
	//     schema:
	//       "$ref": "#/definitions/Poll"
	//   '410':
	//     description: poll has ended
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req VoteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.OptionID == nil {
		writeError(w, http.StatusBadRequest, "option_id is required")
		return
	}

	p, err := s.s.Vote(r.Context(), chi.URLParam(r, "id"), req.User, *req.OptionID)
	if err != nil {
		writeServiceError(r.Context(), w, err, "vote")
		return
	}

	writeOK(w, http.StatusOK, toAPIPoll(p))
}

func (s server) deletePoll(w http.ResponseWriter, r *http.Request) {
	// swagger:operation DELETE /polls/{id} Polls DeletePoll
	//
	// Deletes own poll.
	//
	// ---
	// responses:
	//   '204':
	//     description: deleted
	//   '403':
	//     description: not an author of the poll
	//     schema:
	//       "$ref": "#/definitions/Error"

	var req UserRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.s.DeletePoll(r.Context(), chi.URLParam(r, "id"), req.User); err != nil {
		writeServiceError(r.Context(), w, err, "delete poll")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s server) getStats(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /stats Stats GetStats
	//
	// Returns platform statistics. The response is cached for a few seconds.
	//
	// ---
	// responses:
	//   '200':
	//     description: Stats
	//     schema:
	//       "$ref": "#/definitions/Stats"

	stats, err := s.s.Stats(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, "get stats")
		return
	}

	writeOK(w, http.StatusOK, toAPIStats(stats))
}

func (s server) backup(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /backup Maintenance Backup
	//
	// Writes all collections into a single backup snapshot.
	//
	// ---
	// responses:
	//   '201':
	//     description: Backup
	//     schema:
	//       "$ref": "#/definitions/BackupResponse"

	b, err := s.s.Backup(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, "create backup")
		return
	}

	writeOK(w, http.StatusCreated, BackupResponse{
		Name:     b.Name,
		Posts:    b.Posts,
		Profiles: b.Profiles,
		Polls:    b.Polls,
	})
}
