package shared

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

const AccentColor = 0x9B59B6

func Reply(s *discordgo.Session, channelID, content string) {
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("failed to send message")
	}
}

func ReplyEmbed(s *discordgo.Session, channelID string, embed *discordgo.MessageEmbed) {
	if embed.Color == 0 {
		embed.Color = AccentColor
	}
	if _, err := s.ChannelMessageSendEmbed(channelID, embed); err != nil {
		log.Warn().Err(err).Str("channel", channelID).Msg("failed to send embed")
	}
}

func ReplyError(s *discordgo.Session, channelID, content string) {
	Reply(s, channelID, "⚠️ "+content)
}

// IsAdmin checks the Administrator permission for a user in a channel.
func IsAdmin(s *discordgo.Session, channelID, userID string) bool {
	perms, err := s.UserChannelPermissions(userID, channelID)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("permission lookup failed")
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}

// VoiceChannelOf finds the voice channel a user currently occupies, empty
// when they are not connected.
func VoiceChannelOf(s *discordgo.Session, guildID, userID string) string {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return ""
	}
	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID
		}
	}
	return ""
}
