package service

import "avocado/internal/models"

// Toast texts shown after an action.
const (
	MsgPostsFetchFailed    = "error fetching posts"
	MsgUsersFetchFailed    = "error fetching users"
	MsgCommentsFetchFailed = "error fetching comments"

	MsgCommentRequired      = "🥑 Please write a comment."
	MsgCommentCreated       = "🥑 Comment posted."
	MsgCommentCreateFailed  = "🥑 Something went wrong while posting the comment."
	MsgCommentUpdated       = "🥑 Comment updated."
	MsgCommentUpdateFailed  = "🥑 Something went wrong while updating the comment."
	MsgCommentDeleted       = "🥑 Comment deleted."
	MsgCommentEditForbidden = "🥑 You are not allowed to edit this comment"
	MsgCommentDelForbidden  = "🥑 You are not allowed to delete this comment"

	MsgPostFieldsRequired = "🥑 Please enter both a title and content."
	MsgPostCreated        = "🥑 Post published."
	MsgPostCreateFailed   = "🥑 Something went wrong while publishing the post."
	MsgPostUpdated        = "🥑 Post updated."
	MsgPostUpdateFailed   = "🥑 Something went wrong while updating the post."
	MsgPostDeleted        = "🥑 Post deleted."
	MsgPostEditForbidden  = "🥑 You are not allowed to edit this post"
	MsgPostDelForbidden   = "🥑 You are not allowed to delete this post"
	MsgDeleteFailed       = "🥑 Something went wrong while deleting."
	MsgPostLoadFailed     = "🥑 Could not load the post."

	MsgNicknameRequired = "🥑 Please enter a nickname."
	MsgNicknameUpdated  = "🥑 Nickname updated."
	MsgNicknameFailed   = "🥑 Something went wrong while updating the nickname."
	MsgProfileFailed    = "🥑 Could not load your profile."

	MsgLoginRequired = "🥑 Please enter your email and password."
	MsgLoginFailed   = "🥑 Email or password is incorrect."
	MsgLoginOK       = "🥑 Welcome back!"
	MsgLogoutOK      = "🥑 You have been logged out."
	MsgMembersOnly   = "Only members can view posts."
)

// ErrDuplicateNickname is returned when the API answers 409 to a nickname change.
var ErrDuplicateNickname = models.NewConflictError("duplicate nickname")
