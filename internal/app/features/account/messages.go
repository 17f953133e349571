package account

const (
	MsgEmailExists       = "Email already exists."
	MsgUserExists        = "User already exists"
	MsgUserNotFound      = "User not found"
	MsgLoginUnknownEmail = "Email or password entered wrong."
	MsgLoginBadPassword  = "Email or password not match."
	MsgPasswordMismatch  = "Password and confirm password does not match."
	MsgPasswordTooShort  = "Password should be at least 6 characters."
	MsgPasswordTooLong   = "Password should be at most 72 bytes."
	MsgInvalidToken      = "Invalid token"
	MsgVerificationSent  = "Send verification email."
	MsgResetSent         = "If the email belongs to an account, a reset link has been sent."
	MsgPasswordReset     = "Password reset successfully."
)
