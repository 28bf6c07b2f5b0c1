// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Loopers Contributors

//go:build integration

package postgres_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/loopers/commerce-api/internal/user"
	"github.com/loopers/commerce-api/internal/user/postgres"
	"github.com/loopers/commerce-api/internal/user/usertest"
)

var _ = Describe("Directory", func() {
	var (
		ctx context.Context
		dir *postgres.Directory
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = postgres.NewDirectory(testPool)
		_, err := testPool.Exec(ctx, `TRUNCATE users`)
		Expect(err).NotTo(HaveOccurred())
	})

	newUser := func(loginID string) *user.User {
		u, err := user.NewUser(loginID, "hash", "Alice", "1994-05-25", loginID+"@test.com")
		Expect(err).NotTo(HaveOccurred())
		return u
	}

	It("round-trips a saved user", func() {
		saved, err := dir.Save(ctx, newUser("alice1"))
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.IsNew()).To(BeFalse())

		exists, err := dir.ExistsByLoginID(ctx, "alice1")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeTrue())

		found, err := dir.FindByLoginID(ctx, "alice1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.ID).To(Equal(saved.ID))
		Expect(found.Email()).To(Equal("alice1@test.com"))
		Expect(found.Birthday().Format(user.BirthdayLayout)).To(Equal("1994-05-25"))
	})

	It("treats login ids as case-sensitive", func() {
		_, err := dir.Save(ctx, newUser("alice1"))
		Expect(err).NotTo(HaveOccurred())

		exists, err := dir.ExistsByLoginID(ctx, "ALICE1")
		Expect(err).NotTo(HaveOccurred())
		Expect(exists).To(BeFalse())
	})

	It("reports a missing user as ErrNotFound", func() {
		_, err := dir.FindByLoginID(ctx, "ghost")
		Expect(err).To(MatchError(user.ErrNotFound))
	})

	It("rejects a second user with the same login id", func() {
		_, err := dir.Save(ctx, newUser("alice1"))
		Expect(err).NotTo(HaveOccurred())

		_, err = dir.Save(ctx, newUser("alice1"))
		Expect(err).To(MatchError(user.ErrDuplicateLoginID))
	})

	It("persists a password change", func() {
		saved, err := dir.Save(ctx, newUser("alice1"))
		Expect(err).NotTo(HaveOccurred())

		Expect(saved.ChangePassword("new-hash")).To(Succeed())
		_, err = dir.Save(ctx, saved)
		Expect(err).NotTo(HaveOccurred())

		found, err := dir.FindByLoginID(ctx, "alice1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.PasswordHash()).To(Equal("new-hash"))
		Expect(found.UpdatedAt).To(BeTemporally(">=", found.CreatedAt))
	})

	It("backs the service end to end", func() {
		svc, err := user.NewService(dir, usertest.Hasher{})
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.Signup(ctx, user.SignupCommand{
			LoginID: "bob1", Password: "qwer@1234", Name: "Bob", Birthday: "1990-01-01", Email: "b@test.com",
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.Signup(ctx, user.SignupCommand{
			LoginID: "bob1", Password: "qwer@1234", Name: "Bob", Birthday: "1990-01-01", Email: "b@test.com",
		})
		Expect(user.KindOf(err)).To(Equal(user.KindConflict))

		Expect(svc.ChangePassword(ctx, user.ChangePasswordCommand{
			LoginID: "bob1", CurrentPassword: "qwer@1234", NewPassword: "asdf@5678",
		})).To(Succeed())

		_, err = svc.Authenticate(ctx, "bob1", "asdf@5678")
		Expect(err).NotTo(HaveOccurred())
	})
})
