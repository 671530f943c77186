// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sharebox/sharebox/internal/auth"
)

// NewHashPasswordCmd creates the hash-password subcommand.
func NewHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin",
		Long: `Read one line from standard input and print its bcrypt hash, as it
would be stored in users.password_hash. The password policy applies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHashPassword(cmd, auth.NewBcryptHasher())
		},
	}
}

func runHashPassword(cmd *cobra.Command, hasher auth.PasswordHasher) error {
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return oops.Code("PASSWORD_READ_FAILED").With("operation", "read password").Wrap(err)
	}
	password := strings.TrimRight(line, "\r\n")

	form := auth.RegistrationForm{Password: password, RepeatPassword: password}
	if err := form.Validate(); err != nil {
		return err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return err
}
