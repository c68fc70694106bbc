package events

// Every packet on the events channel starts with one of these bytes,
// followed by the msgpack encoded body. The bot only decodes posts and
// reaction additions; the rest are listed so unknown ops can be told apart
// from ones we skip on purpose.
const (
	OpCreateUser uint8 = 0
	OpUpdateUser uint8 = 1
	OpDeleteUser uint8 = 2

	OpUpdateUserSettings uint8 = 3

	OpRevokeSession uint8 = 4

	OpUpdateRelationship uint8 = 5

	OpCreateChat uint8 = 6
	OpUpdateChat uint8 = 7
	OpDeleteChat uint8 = 8

	OpCreateChatMember uint8 = 9
	OpUpdateChatMember uint8 = 10
	OpDeleteChatMember uint8 = 11

	OpCreateChatEmote uint8 = 12
	OpUpdateChatEmote uint8 = 13
	OpDeleteChatEmote uint8 = 14

	OpTyping uint8 = 15

	OpCreatePost      uint8 = 16 // decoded
	OpUpdatePost      uint8 = 17
	OpDeletePost      uint8 = 18
	OpBulkDeletePosts uint8 = 19

	OpPostReactionAdd    uint8 = 20 // decoded
	OpPostReactionRemove uint8 = 21

	opMax = OpPostReactionRemove
)
