package main

import (
	"fmt"
	"os"

	"github.com/go-errors/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	atopet "github.com/intx4/Atopet"
	"github.com/intx4/Atopet/internal/common"
	"github.com/intx4/Atopet/pskeys"
	"github.com/intx4/Atopet/store"
	"github.com/intx4/Atopet/stroll"
)

var errInvalidSignature = errors.New("invalid request signature")

func keygenCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an issuer key pair for a subscription catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sk, pk, err := stroll.GenerateCA(v.GetStringSlice("catalog"))
			if err != nil {
				return err
			}
			force := v.GetBool("force")
			if err = writeFile(v.GetString("sk"), sk, 0600, force); err != nil {
				return err
			}
			if err = writeFile(v.GetString("pk"), pk, 0644, force); err != nil {
				return err
			}
			public, err := pskeys.NewPublicKeyFromBytes(pk)
			if err != nil {
				return err
			}
			fp, err := public.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), fp.B58String())
			return nil
		},
	}
	cmd.Flags().StringSlice("catalog", nil, "ordered subscription attributes, optionally ending with username")
	cmd.Flags().String("sk", "sk.cbor", "issuer secret key file")
	cmd.Flags().Bool("force", false, "overwrite existing key files")
	return cmd
}

func requestCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Prepare an issuance request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := os.ReadFile(v.GetString("pk"))
			if err != nil {
				return err
			}
			request, state, err := stroll.NewClient().PrepareRegistration(pk, v.GetString("username"), v.GetStringSlice("subscriptions"))
			if err != nil {
				return err
			}
			st, err := state.Bytes()
			if err != nil {
				return err
			}
			if err = writeFile(v.GetString("state"), st, 0600, true); err != nil {
				return err
			}
			return writeFile(v.GetString("request"), request, 0644, true)
		},
	}
	cmd.Flags().String("username", "", "username to register")
	cmd.Flags().StringSlice("subscriptions", nil, "subscriptions to register for")
	cmd.Flags().String("request", "request.cbor", "issuance request output file")
	cmd.Flags().String("state", "state.cbor", "private registration state output file")
	return cmd
}

func issueCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Answer an issuance request with a blind signature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := openServer(v)
			if err != nil {
				return err
			}
			request, err := os.ReadFile(v.GetString("request"))
			if err != nil {
				return err
			}
			response, err := server.ProcessRegistration(request, v.GetString("username"), v.GetStringSlice("subscriptions"))
			if err != nil {
				return err
			}
			return writeFile(v.GetString("response"), response, 0644, true)
		},
	}
	cmd.Flags().String("sk", "sk.cbor", "issuer secret key file")
	cmd.Flags().String("username", "", "username of the requester")
	cmd.Flags().StringSlice("subscriptions", nil, "subscriptions of the requester")
	cmd.Flags().String("request", "request.cbor", "issuance request file")
	cmd.Flags().String("response", "response.cbor", "issuance response output file")
	return cmd
}

func obtainCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "obtain",
		Short: "Unblind an issuance response and store the credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := os.ReadFile(v.GetString("pk"))
			if err != nil {
				return err
			}
			st, err := os.ReadFile(v.GetString("state"))
			if err != nil {
				return err
			}
			state, err := stroll.NewStateFromBytes(pk, st)
			if err != nil {
				return err
			}
			response, err := os.ReadFile(v.GetString("response"))
			if err != nil {
				return err
			}
			credential, err := stroll.NewClient().ProcessRegistrationResponse(pk, response, state)
			if err != nil {
				return err
			}
			if err = storeCredential(v, pk, credential); err != nil {
				return err
			}
			return os.Remove(v.GetString("state"))
		},
	}
	cmd.Flags().String("db", "credentials.db", "credential database")
	cmd.Flags().String("state", "state.cbor", "private registration state file")
	cmd.Flags().String("response", "response.cbor", "issuance response file")
	return cmd
}

func registerCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Request, issue and store a credential in one step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := openServer(v)
			if err != nil {
				return err
			}
			pk, err := server.PublicKey()
			if err != nil {
				return err
			}
			username, subscriptions := v.GetString("username"), v.GetStringSlice("subscriptions")

			client := stroll.NewClient()
			request, state, err := client.PrepareRegistration(pk, username, subscriptions)
			if err != nil {
				return err
			}
			response, err := server.ProcessRegistration(request, username, subscriptions)
			if err != nil {
				return err
			}
			credential, err := client.ProcessRegistrationResponse(pk, response, state)
			if err != nil {
				return err
			}
			return storeCredential(v, pk, credential)
		},
	}
	cmd.Flags().String("sk", "sk.cbor", "issuer secret key file")
	cmd.Flags().String("db", "credentials.db", "credential database")
	cmd.Flags().String("username", "", "username to register")
	cmd.Flags().StringSlice("subscriptions", nil, "subscriptions to register for")
	return cmd
}

func showCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Sign a message with a stored credential",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := os.ReadFile(v.GetString("pk"))
			if err != nil {
				return err
			}
			public, err := pskeys.NewPublicKeyFromBytes(pk)
			if err != nil {
				return err
			}
			db, err := store.Open(v.GetString("db"))
			if err != nil {
				return err
			}
			defer common.Close(db)
			cred, err := db.Get(public, v.GetString("username"))
			if err != nil {
				return err
			}
			credential, err := cred.Bytes()
			if err != nil {
				return err
			}
			signature, err := stroll.NewClient().SignRequest(pk, credential, []byte(v.GetString("message")), v.GetStringSlice("reveal"))
			if err != nil {
				return err
			}
			return writeFile(v.GetString("signature"), signature, 0644, true)
		},
	}
	cmd.Flags().String("db", "credentials.db", "credential database")
	cmd.Flags().String("username", "", "username of the credential")
	cmd.Flags().String("message", "", "message to sign")
	cmd.Flags().StringSlice("reveal", nil, "subscriptions to disclose")
	cmd.Flags().String("signature", "signature.cbor", "signature output file")
	return cmd
}

func verifyCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the signature on a request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := pskeys.NewPublicKeyFromFile(v.GetString("pk"))
			if err != nil {
				return err
			}
			bts, err := os.ReadFile(v.GetString("signature"))
			if err != nil {
				return err
			}
			proof, err := atopet.NewDisclosureProofFromBytes(bts)
			if err != nil {
				return err
			}
			if !proof.Verify(pk, v.GetStringSlice("reveal"), []byte(v.GetString("message"))) {
				return errInvalidSignature
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	cmd.Flags().String("message", "", "signed message")
	cmd.Flags().StringSlice("reveal", nil, "disclosed subscriptions")
	cmd.Flags().String("signature", "signature.cbor", "signature file")
	return cmd
}

func openServer(v *viper.Viper) (*stroll.Server, error) {
	sk, err := os.ReadFile(v.GetString("sk"))
	if err != nil {
		return nil, err
	}
	pk, err := os.ReadFile(v.GetString("pk"))
	if err != nil {
		return nil, err
	}
	return stroll.NewServer(sk, pk, nil)
}

func storeCredential(v *viper.Viper, pk, credential []byte) error {
	public, err := pskeys.NewPublicKeyFromBytes(pk)
	if err != nil {
		return err
	}
	cred, err := atopet.NewCredentialFromBytes(credential)
	if err != nil {
		return err
	}
	db, err := store.Open(v.GetString("db"))
	if err != nil {
		return err
	}
	defer common.Close(db)
	return db.Put(public, cred)
}

func writeFile(filename string, data []byte, perm os.FileMode, force bool) error {
	if err := common.WriteFile(filename, data, force, perm); err != nil {
		return errors.WrapPrefix(err, "could not write "+filename, 0)
	}
	return nil
}
