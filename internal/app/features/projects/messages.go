package projects

const (
	MsgProjectDeleted   = "Project deleted successfully."
	MsgInviteSent       = "Invitation sent successfully."
	MsgAlreadyMember    = "User is already a member of the project."
	MsgInviteSelf       = "You cannot invite yourself."
	MsgInviteAccepted   = "Invitation accepted."
	MsgInviteRejected   = "Invitation rejected."
	MsgInviteClosed     = "This invitation is no longer pending."
	MsgInviteNotYours   = "This invitation was sent to a different email."
	MsgMemberRemoved    = "Member removed successfully."
	MsgMembersRemoved   = "Members removed successfully."
	MsgCannotRemove     = "You do not have permission to remove user."
	MsgCannotChangeRole = "The owner's role cannot be changed."
	MsgMemberChanged    = "Project member was changed by someone else. Reload and try again."
)
