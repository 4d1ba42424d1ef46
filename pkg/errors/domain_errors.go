package errors

var (
	// Domain errors — returned by the store layer
	ErrSelfRequest        = InvalidArg("cannot send a friend request to yourself")
	ErrReceiverNotFound   = NotFound("receiver not found")
	ErrRequestNotFound    = NotFound("friend request not found")
	ErrRequestPending     = AlreadyExists("a pending friend request already exists")
	ErrAlreadyFriends     = AlreadyExists("users are already friends")
	ErrNotReceiver        = Forbidden("only the receiver can respond to this request")
	ErrRequestSettled     = FailedPrecondition("friend request has already been processed")
	ErrUserNotFound       = NotFound("user not found")
	ErrChatNotFound       = NotFound("chat not found")
	ErrNotChatMember      = Forbidden("user is not a member of this chat")
	ErrEmptyMessage       = InvalidArg("message content cannot be empty")
	ErrEmptyGroupName     = InvalidArg("group chat name cannot be empty")
	ErrTooFewGroupMembers = InvalidArg("a group chat needs at least two other members")
)
