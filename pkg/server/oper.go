package server

import (
	"log"

	"gopkg.in/irc.v4"

	"golang.org/x/crypto/bcrypt"
)

// cmdOper authenticates a server operator against the configured bcrypt
// credential list.
func (s *Server) cmdOper(c *Client, m *irc.Message) {
	name, password := m.Params[0], m.Params[1]
	for _, op := range s.cfg.Opers {
		if op.Name != name {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(op.Password), []byte(password)) != nil {
			break
		}
		c.oper = true
		if c.userModes.SetFlag("oper") {
			c.sendFrom("MODE", c.Nick(), "+o")
		}
		c.SendNumeric(RplYoureOper, "You are now an IRC operator")
		log.Printf("[%d] %s authenticated as operator %q", c.id, c.Nick(), name)
		return
	}
	c.SendNumeric(ErrPasswdMismatch, "Password incorrect")
}
