package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"shroud"
)

func newExecCommand(connectFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec [request]",
		Short: "Run one raw JSON request against the daemon",
		Long: `Run one raw JSON request against the daemon and print the raw response.

The request is taken from the argument, or from stdin when the argument is
omitted or "-". The response is printed exactly as the daemon sent it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptor := strings.TrimSpace(*connectFlag)
			if descriptor == "" {
				return errors.New("--connect is required")
			}
			request, err := readRequest(cmd, args)
			if err != nil {
				return err
			}

			conn, err := shroud.Connect(descriptor)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer conn.Close()

			response, err := conn.Execute(request)
			if err != nil {
				var rpcErr *shroud.Error
				if errors.As(err, &rpcErr) {
					if payload, ok := rpcErr.Response(); ok {
						fmt.Fprintln(cmd.ErrOrStderr(), payload)
					}
				}
				return fmt.Errorf("execute: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), response)
			return nil
		},
	}
	return cmd
}

func readRequest(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read request from stdin: %w", err)
	}
	request := strings.TrimSpace(string(raw))
	if request == "" {
		return "", errors.New("request is empty")
	}
	return request, nil
}
