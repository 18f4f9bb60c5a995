package main

import (
	"crypto/rand"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/quietchannel/noise"
	"github.com/quietchannel/noise/cmd/noise-pipe/registry"
)

var dialCmd = &cobra.Command{
	Use:   "dial",
	Short: "Dial a noise-pipe listener and send a few transport messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyLogLevel(cmd)
		addr, _ := cmd.Flags().GetString("addr")
		count, _ := cmd.Flags().GetInt("count")
		return runDial(addr, count)
	},
}

func init() {
	dialCmd.Flags().String("addr", "127.0.0.1:4343", "address to dial")
	dialCmd.Flags().Int("count", 3, "number of transport messages to send")
	rootCmd.AddCommand(dialCmd)
}

func runDial(addr string, count int) error {
	cs := noise.NewCipherSuite(noise.DH25519, noise.CipherAESGCM, noise.HashSHA256)
	static, err := noise.DH25519.GenerateKeypair(rand.Reader)
	if err != nil {
		return err
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	reg := registry.New()
	id := reg.Open(conn.RemoteAddr().String(), true, "Noise_XX_25519_AESGCM_SHA256")
	defer reg.Close(id)
	entry := log.WithFields(logrus.Fields{"session": id, "remote": addr})

	hs, err := noise.NewHandshakeState(noise.Config{
		CipherSuite:   cs,
		Pattern:       noise.HandshakeXX,
		Initiator:     true,
		StaticKeypair: static,
	})
	if err != nil {
		return err
	}

	enc, dec, err := runInitiatorHandshake(conn, hs)
	if err != nil {
		return fmt.Errorf("noise-pipe: handshake failed: %w", err)
	}
	reg.Complete(id, hs.ChannelBinding())
	entry.Info("handshake complete")

	for i := 0; i < count; i++ {
		payload := fmt.Sprintf("message %d", i)
		ct, err := enc.Encrypt(nil, nil, []byte(payload))
		if err != nil {
			return err
		}
		if err := writeFrame(conn, ct); err != nil {
			return err
		}
		entry.WithField("payload", payload).Info("sent transport message")

		reply, err := readFrame(conn)
		if err != nil {
			return err
		}
		plaintext, err := dec.Decrypt(nil, nil, reply)
		if err != nil {
			return err
		}
		entry.WithField("payload", string(plaintext)).Info("received echo")
	}
	return nil
}

// runInitiatorHandshake drives the three-message Noise_XX exchange from the
// initiator side, returning the CipherStates for sending to and receiving
// from the responder.
func runInitiatorHandshake(conn net.Conn, hs *noise.HandshakeState) (enc, dec *noise.CipherState, err error) {
	msg1, _, _, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := writeFrame(conn, msg1); err != nil {
		return nil, nil, err
	}

	msg2, err := readFrame(conn)
	if err != nil {
		return nil, nil, err
	}
	if _, _, _, err := hs.ReadMessage(nil, msg2); err != nil {
		return nil, nil, err
	}

	msg3, cs1, cs2, err := hs.WriteMessage(nil, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := writeFrame(conn, msg3); err != nil {
		return nil, nil, err
	}
	// cs1 carries initiator-to-responder, cs2 the reverse: the initiator
	// encrypts with cs1 and decrypts with cs2.
	return cs1, cs2, nil
}
