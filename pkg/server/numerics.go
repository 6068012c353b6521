package server

// Standard IRC numeric replies used by this server. The named-modes
// numerics (960-965) live in pkg/namedmodes.
const (
	RplWelcome  = "001"
	RplYourHost = "002"
	RplCreated  = "003"
	RplMyInfo   = "004"
	RplISupport = "005"

	RplUModeIs        = "221"
	RplChannelModeIs  = "324"
	RplCreationTime   = "329"
	RplNoTopic        = "331"
	RplTopic          = "332"
	RplInviteList     = "346"
	RplEndOfInviteLst = "347"
	RplExceptList     = "348"
	RplEndOfExceptLst = "349"
	RplNamReply       = "353"
	RplEndOfNames     = "366"
	RplBanList        = "367"
	RplEndOfBanList   = "368"
	RplMotd           = "372"
	RplMotdStart      = "375"
	RplEndOfMotd      = "376"
	RplYoureOper      = "381"

	ErrNoSuchNick        = "401"
	ErrNoSuchChannel     = "403"
	ErrCannotSendToChan  = "404"
	ErrUnknownCommand    = "421"
	ErrNoMotd            = "422"
	ErrNoNicknameGiven   = "431"
	ErrErroneusNickname  = "432"
	ErrNicknameInUse     = "433"
	ErrNotOnChannel      = "442"
	ErrNotRegistered     = "451"
	ErrNeedMoreParams    = "461"
	ErrAlreadyRegistred  = "462"
	ErrPasswdMismatch    = "464"
	ErrChannelIsFull     = "471"
	ErrUnknownMode       = "472"
	ErrInviteOnlyChan    = "473"
	ErrBannedFromChan    = "474"
	ErrBadChannelKey     = "475"
	ErrNoPrivileges      = "481"
	ErrChanOpPrivsNeeded = "482"
	ErrUsersDontMatch    = "502"
)
