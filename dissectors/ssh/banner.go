package ssh

import "strings"

// parseBannerLine splits a "SSH-protoversion-softwareversion[ comments]"
// line (RFC 4253 §4.2) into its parts. The source this was distilled from
// compared version enum values with "<", an ordering it never documented;
// per the redesign note, SSH_1_99 is treated as SSH-2-compatible and the
// lower of the two banners' version strings (lexicographic) is reported as
// negotiated by NegotiatedVersion, rather than replicating the undefined
// enum ordering.
func parseBannerLine(line string) (Banner, bool) {
	if !strings.HasPrefix(line, "SSH-") {
		return Banner{}, false
	}
	rest := line[len("SSH-"):]

	var comments string
	if sp := strings.IndexByte(rest, ' '); sp >= 0 {
		comments = rest[sp+1:]
		rest = rest[:sp]
	}

	dash := strings.IndexByte(rest, '-')
	if dash < 0 {
		return Banner{}, false
	}
	proto := rest[:dash]
	software := rest[dash+1:]
	if proto == "" || software == "" {
		return Banner{}, false
	}

	return Banner{
		ProtoVersion:    proto,
		SoftwareVersion: software,
		Comments:        comments,
		Raw:             line,
	}, true
}

// NegotiatedVersion returns the lexicographically lower of the two
// banners' protocol versions, treating "1.99" as SSH-2-compatible per RFC
// 4253 §5.
func NegotiatedVersion(client, server *Banner) string {
	if client == nil || server == nil {
		return ""
	}
	if client.ProtoVersion <= server.ProtoVersion {
		return client.ProtoVersion
	}
	return server.ProtoVersion
}
